package notify

import "github.com/roach88/readlater/internal/model"

// Section is a run of rows sharing one status.
type Section struct {
	Status model.Status
	Items  []model.Item
}

// Sections groups consecutive rows by status. Rows sorted by status
// (as tag views are) yield one section per status present.
func Sections(items []model.Item) []Section {
	var out []Section
	for _, it := range items {
		if n := len(out); n > 0 && out[n-1].Status == it.Status {
			out[n-1].Items = append(out[n-1].Items, it)
			continue
		}
		out = append(out, Section{Status: it.Status, Items: []model.Item{it}})
	}
	return out
}
