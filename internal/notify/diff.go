package notify

import (
	"slices"
	"sort"
)

// Diff computes the deltas that turn old into new.
//
// key identifies a row; keys must be unique within each slice. equal reports
// whether two values of the same row are indistinguishable to a consumer.
//
// Rows that keep their relative order are never moved. Of the rows present
// in both slices, those on a longest increasing subsequence of new positions
// stay put and only the rest move.
func Diff[T any](old, new []T, key func(T) string, equal func(a, b T) bool) []Delta[T] {
	newIndex := make(map[string]int, len(new))
	for j, v := range new {
		newIndex[key(v)] = j
	}
	oldIndex := make(map[string]int, len(old))
	for i, v := range old {
		oldIndex[key(v)] = i
	}

	var deltas []Delta[T]

	// Deletes, descending so earlier indices stay valid.
	for i := len(old) - 1; i >= 0; i-- {
		if _, ok := newIndex[key(old[i])]; !ok {
			deltas = append(deltas, Delta[T]{Type: Delete, Index: i})
		}
	}

	// Survivors in their post-delete order, tagged with their new position.
	work := make([]int, 0, len(old)) // new positions
	for _, v := range old {
		if j, ok := newIndex[key(v)]; ok {
			work = append(work, j)
		}
	}

	placed := make([]bool, len(new))
	for _, p := range lisPositions(work) {
		placed[work[p]] = true
	}

	moved := make([]bool, len(new))
	movers := make([]int, 0, len(work))
	for _, j := range work {
		if !placed[j] {
			movers = append(movers, j)
		}
	}
	slices.Sort(movers)

	for _, j := range movers {
		from := slices.Index(work, j)
		work = slices.Delete(work, from, from+1)

		to := 0
		for pred := j - 1; pred >= 0; pred-- {
			if placed[pred] {
				to = slices.Index(work, pred) + 1
				break
			}
		}
		work = slices.Insert(work, to, j)
		placed[j] = true
		moved[j] = true

		deltas = append(deltas, Delta[T]{Type: Move, Index: from, NewIndex: to, Item: new[j]})
	}

	// Inserts, ascending: everything before j is already in place.
	for j, v := range new {
		if _, ok := oldIndex[key(v)]; !ok {
			deltas = append(deltas, Delta[T]{Type: Insert, Index: j, Item: v})
		}
	}

	for j, v := range new {
		i, ok := oldIndex[key(v)]
		if !ok || moved[j] {
			continue
		}
		if !equal(old[i], v) {
			deltas = append(deltas, Delta[T]{Type: Update, Index: j, Item: v})
		}
	}

	return deltas
}

// lisPositions returns the positions in seq of one longest strictly
// increasing subsequence, in ascending order.
func lisPositions(seq []int) []int {
	if len(seq) == 0 {
		return nil
	}

	// tails[k] is the position of the smallest tail of an increasing run of
	// length k+1; prev links each position to its predecessor in that run.
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		k := sort.Search(len(tails), func(n int) bool { return seq[tails[n]] >= v })
		if k > 0 {
			prev[i] = tails[k-1]
		} else {
			prev[i] = -1
		}
		if k == len(tails) {
			tails = append(tails, i)
		} else {
			tails[k] = i
		}
	}

	out := make([]int, len(tails))
	for k, i := len(tails)-1, tails[len(tails)-1]; k >= 0; k, i = k-1, prev[i] {
		out[k] = i
	}
	return out
}
