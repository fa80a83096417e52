package notify

import (
	"slices"
	"sync"

	"github.com/roach88/readlater/internal/fifo"
	"github.com/roach88/readlater/internal/model"
	"github.com/roach88/readlater/internal/queryir"
)

// ItemBatch is a batch of item deltas.
type ItemBatch = Batch[model.Item]

// Subscription is a live view of one item query.
//
// Batches are queued in an unbounded mailbox, so a slow consumer never stalls
// a commit. They are handed to Changes in commit order.
type Subscription struct {
	id       string
	query    queryir.Query
	seq      int64
	snapshot []model.Item

	mailbox  *fifo.Queue[ItemBatch]
	out      chan ItemBatch
	done     chan struct{}
	pumpDone chan struct{}
	once     sync.Once

	// onCancel runs once, after delivery has stopped.
	onCancel func(*Subscription)
}

func newSubscription(id string, q queryir.Query, seq int64, snapshot []model.Item, onCancel func(*Subscription)) *Subscription {
	s := &Subscription{
		id:       id,
		query:    q,
		seq:      seq,
		snapshot: cloneItems(snapshot),
		mailbox:  fifo.New[ItemBatch](),
		out:      make(chan ItemBatch),
		done:     make(chan struct{}),
		pumpDone: make(chan struct{}),
		onCancel: onCancel,
	}
	go s.pump()
	return s
}

// ID returns the subscription's unique id.
func (s *Subscription) ID() string { return s.id }

// Query returns the query the subscription watches.
func (s *Subscription) Query() queryir.Query { return s.query }

// Seq returns the last commit merged when the snapshot was taken. Every
// batch on Changes has a greater Seq.
func (s *Subscription) Seq() int64 { return s.seq }

// Snapshot returns the rows matching the query when the subscription was
// opened, in sort order. The caller owns the returned slice.
func (s *Subscription) Snapshot() []model.Item {
	return cloneItems(s.snapshot)
}

// Changes delivers one batch per commit that changed the result.
// The channel is closed after Cancel.
func (s *Subscription) Changes() <-chan ItemBatch {
	return s.out
}

// Done is closed when the subscription is cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Cancel stops delivery and releases the subscription. No batch is delivered
// after Cancel returns. Safe to call more than once and from any goroutine,
// including the one reading Changes.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.done)
		<-s.pumpDone
		s.mailbox.Close()
		if s.onCancel != nil {
			s.onCancel(s)
		}
	})
}

// deliver queues a batch. Returns false once the subscription is cancelled.
func (s *Subscription) deliver(b ItemBatch) bool {
	return s.mailbox.Enqueue(b)
}

func (s *Subscription) pump() {
	defer close(s.pumpDone)
	defer close(s.out)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		b, ok := s.mailbox.TryDequeue()
		if !ok {
			select {
			case <-s.done:
				return
			case <-s.mailbox.Wait():
			}
			continue
		}

		select {
		case s.out <- b:
		case <-s.done:
			return
		}
	}
}

func cloneItems(items []model.Item) []model.Item {
	if items == nil {
		return []model.Item{}
	}
	out := slices.Clone(items)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

func cloneBatch(b ItemBatch) ItemBatch {
	deltas := slices.Clone(b.Deltas)
	for i := range deltas {
		deltas[i].Item = deltas[i].Item.Clone()
	}
	return ItemBatch{Seq: b.Seq, Deltas: deltas}
}
