package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/readlater/internal/model"
	"github.com/roach88/readlater/internal/queryir"
)

// AssertionError describes one failed check.
type AssertionError struct {
	Type     string
	Subject  string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s %s: expected %s, got %s", e.Type, e.Subject, e.Expected, e.Actual)
}

func (h *Harness) check(ctx context.Context, a Assertion, result *Result) error {
	switch a.Type {
	case AssertList:
		return h.assertList(ctx, a)
	case AssertTag:
		return h.assertTag(ctx, a)
	case AssertTags:
		return h.assertTags(ctx, a)
	case AssertItem:
		return h.assertItem(ctx, a)
	case AssertDeltas:
		return assertDeltas(a, result)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func (h *Harness) assertList(ctx context.Context, a Assertion) error {
	list, err := model.ParseTypeOfList(a.List)
	if err != nil {
		return err
	}
	q, err := queryir.ForList(list, a.Search)
	if err != nil {
		return err
	}
	items, err := h.mgr.Snapshot(ctx, q)
	if err != nil {
		return err
	}

	subject := list.String()
	if a.Search != "" {
		subject += fmt.Sprintf(" matching %q", a.Search)
	}
	return compareIDs(AssertList, subject, a.IDs, ids(items))
}

func (h *Harness) assertTag(ctx context.Context, a Assertion) error {
	items, err := h.mgr.Snapshot(ctx, queryir.ForTag(a.Tag))
	if err != nil {
		return err
	}
	return compareIDs(AssertTag, a.Tag, a.IDs, ids(items))
}

func (h *Harness) assertTags(ctx context.Context, a Assertion) error {
	tags, err := h.mgr.Tags(ctx)
	if err != nil {
		return err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return compareIDs(AssertTags, "listing", a.Names, names)
}

func (h *Harness) assertItem(ctx context.Context, a Assertion) error {
	item, found, err := h.mgr.Item(ctx, a.ID)
	if err != nil {
		return err
	}

	fail := func(expected, actual string) error {
		return &AssertionError{Type: AssertItem, Subject: a.ID, Expected: expected, Actual: actual}
	}

	if a.Absent {
		if found {
			return fail("no item", fmt.Sprintf("item %q", item.Title))
		}
		return nil
	}
	if !found {
		return fail("an item", "none")
	}

	if a.Title != nil && item.Title != *a.Title {
		return fail(fmt.Sprintf("title %q", *a.Title), fmt.Sprintf("%q", item.Title))
	}
	if a.Status != "" {
		want, err := model.ParseStatus(a.Status)
		if err != nil {
			return err
		}
		if item.Status != want {
			return fail("status "+want.String(), item.Status.String())
		}
	}
	if a.Favorite != nil && item.Favorite != *a.Favorite {
		return fail(fmt.Sprintf("favorite=%t", *a.Favorite), fmt.Sprintf("favorite=%t", item.Favorite))
	}
	if a.Tags != nil && !slices.Equal(model.NormalizeTags(a.Tags), item.Tags) {
		return fail(fmt.Sprintf("tags %v", model.NormalizeTags(a.Tags)), fmt.Sprintf("%v", item.Tags))
	}
	return nil
}

func assertDeltas(a Assertion, result *Result) error {
	got := result.BatchesFor(a.Watch)
	if slices.EqualFunc(a.Batches, got, slices.Equal[[]string]) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDeltas,
		Subject:  a.Watch,
		Expected: renderBatches(a.Batches),
		Actual:   renderBatches(got),
	}
}

func compareIDs(typ, subject string, want, got []string) error {
	if len(want) == 0 && len(got) == 0 {
		return nil
	}
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Subject:  subject,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
	}
}

func renderBatches(batches [][]string) string {
	if len(batches) == 0 {
		return "no batches"
	}
	parts := make([]string, len(batches))
	for i, b := range batches {
		parts[i] = "[" + strings.Join(b, ", ") + "]"
	}
	return strings.Join(parts, " ")
}
