package notify

import (
	"fmt"
	"slices"
)

// Apply replays deltas onto a copy of rows, in order, and returns the result.
// It fails on the first delta whose index is out of range.
func Apply[T any](rows []T, deltas []Delta[T]) ([]T, error) {
	out := slices.Clone(rows)
	for n, d := range deltas {
		switch d.Type {
		case Delete:
			if d.Index < 0 || d.Index >= len(out) {
				return nil, fmt.Errorf("delta %d (%s): index out of range [0,%d)", n, d, len(out))
			}
			out = slices.Delete(out, d.Index, d.Index+1)
		case Move:
			if d.Index < 0 || d.Index >= len(out) {
				return nil, fmt.Errorf("delta %d (%s): index out of range [0,%d)", n, d, len(out))
			}
			out = slices.Delete(out, d.Index, d.Index+1)
			if d.NewIndex < 0 || d.NewIndex > len(out) {
				return nil, fmt.Errorf("delta %d (%s): new index out of range [0,%d]", n, d, len(out))
			}
			out = slices.Insert(out, d.NewIndex, d.Item)
		case Insert:
			if d.Index < 0 || d.Index > len(out) {
				return nil, fmt.Errorf("delta %d (%s): index out of range [0,%d]", n, d, len(out))
			}
			out = slices.Insert(out, d.Index, d.Item)
		case Update:
			if d.Index < 0 || d.Index >= len(out) {
				return nil, fmt.Errorf("delta %d (%s): index out of range [0,%d)", n, d, len(out))
			}
			out[d.Index] = d.Item
		default:
			return nil, fmt.Errorf("delta %d: unknown type %s", n, d.Type)
		}
	}
	return out, nil
}
