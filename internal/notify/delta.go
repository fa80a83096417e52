package notify

import "fmt"

// DeltaType is the kind of change one Delta describes.
type DeltaType int

const (
	Insert DeltaType = iota
	Delete
	Move
	Update
)

func (t DeltaType) String() string {
	switch t {
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	case Move:
		return "move"
	case Update:
		return "update"
	default:
		return fmt.Sprintf("delta(%d)", int(t))
	}
}

// Delta is one change to an ordered result.
//
// Index is the removal index for Delete and Move, the insertion index for
// Insert, and the row index for Update. NewIndex is only used by Move: the
// index the row is reinserted at once it has been removed. Item is the new
// value of the row and is zero for Delete.
type Delta[T any] struct {
	Type     DeltaType
	Index    int
	NewIndex int
	Item     T
}

func (d Delta[T]) String() string {
	if d.Type == Move {
		return fmt.Sprintf("%s %d %d", d.Type, d.Index, d.NewIndex)
	}
	return fmt.Sprintf("%s %d", d.Type, d.Index)
}

// Batch is every delta produced by one commit for one subscription.
// Seq is the commit's sequence number.
type Batch[T any] struct {
	Seq    int64
	Deltas []Delta[T]
}

// Counts tallies the deltas in a batch by type.
func (b Batch[T]) Counts() map[DeltaType]int {
	counts := make(map[DeltaType]int, 4)
	for _, d := range b.Deltas {
		counts[d.Type]++
	}
	return counts
}
