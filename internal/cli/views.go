package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roach88/readlater/internal/model"
	"github.com/roach88/readlater/internal/notify"
)

// ItemView is the printed form of an item.
type ItemView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url,omitempty"`
	Status      string   `json:"status"`
	TimeAdded   string   `json:"time_added,omitempty"`
	TimeUpdated string   `json:"time_updated,omitempty"`
	Favorite    bool     `json:"favorite,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func newItemView(it model.Item) ItemView {
	return ItemView{
		ID:          it.ID,
		Title:       it.Title,
		URL:         it.URL,
		Status:      it.Status.String(),
		TimeAdded:   formatTime(it.TimeAdded),
		TimeUpdated: formatTime(it.TimeUpdated),
		Favorite:    it.Favorite,
		Tags:        it.Tags,
	}
}

func newItemViews(items []model.Item) []ItemView {
	out := make([]ItemView, len(items))
	for i, it := range items {
		out[i] = newItemView(it)
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// writeItemTable prints items as aligned columns.
func writeItemTable(w io.Writer, items []ItemView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tFAV\tADDED\tTITLE\tTAGS")
	for _, it := range items {
		fav := ""
		if it.Favorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Status, fav, it.TimeAdded, it.Title, strings.Join(it.Tags, ","))
	}
	return tw.Flush()
}

// DeltaView is the printed form of one delta.
type DeltaView struct {
	Type     string    `json:"type"`
	Index    int       `json:"index"`
	NewIndex *int      `json:"new_index,omitempty"`
	Item     *ItemView `json:"item,omitempty"`
}

// BatchView is the printed form of one delivered batch.
type BatchView struct {
	Seq    int64       `json:"seq"`
	Deltas []DeltaView `json:"deltas"`
}

func newBatchView(b notify.ItemBatch) BatchView {
	out := BatchView{Seq: b.Seq, Deltas: make([]DeltaView, len(b.Deltas))}
	for i, d := range b.Deltas {
		dv := DeltaView{Type: d.Type.String(), Index: d.Index}
		if d.Type == notify.Move {
			n := d.NewIndex
			dv.NewIndex = &n
		}
		if d.Type != notify.Delete {
			iv := newItemView(d.Item)
			dv.Item = &iv
		}
		out.Deltas[i] = dv
	}
	return out
}

// WriteText prints one line per delta.
func (b BatchView) WriteText(w io.Writer) error {
	for _, d := range b.Deltas {
		line := fmt.Sprintf("seq %d: %s %d", b.Seq, d.Type, d.Index)
		if d.NewIndex != nil {
			line += fmt.Sprintf(" -> %d", *d.NewIndex)
		}
		if d.Item != nil {
			line += fmt.Sprintf("  %s %q", d.Item.ID, d.Item.Title)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
