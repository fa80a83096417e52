package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"unread", StatusUnread},
		{"0", StatusUnread},
		{"Archived", StatusArchived},
		{"1", StatusArchived},
		{" deleted ", StatusDeleted},
		{"2", StatusDeleted},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	_, err := ParseStatus("later")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))

	st, err := ParseStatus("7")
	require.Error(t, err)
	assert.Equal(t, Status(7), st)
	assert.False(t, st.Valid())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindItem, k)

	k, err = ParseKind("TAG")
	require.NoError(t, err)
	assert.Equal(t, KindTag, k)

	_, err = ParseKind("folder")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestItemValidate(t *testing.T) {
	assert.NoError(t, Item{ID: "1", Status: StatusArchived}.Validate())
	assert.NoError(t, Item{ID: "1", Status: StatusDeleted}.Validate())
	assert.ErrorIs(t, Item{ID: " "}.Validate(), ErrMalformed)
	assert.ErrorIs(t, Item{ID: "1", Status: 9}.Validate(), ErrMalformed)
	assert.ErrorIs(t, Item{ID: "1", Tags: []string{""}}.Validate(), ErrMalformed)
}

func TestItemEqual(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := Item{ID: "1", Title: "A", TimeAdded: ts, Tags: []string{"x"}}
	b := a.Clone()
	b.TimeAdded = ts.In(time.FixedZone("CET", 3600))

	assert.True(t, a.Equal(b), "same instant in another zone is equal")

	b.Tags = append(b.Tags, "y")
	assert.False(t, a.Equal(b))
	assert.Equal(t, []string{"x"}, a.Tags, "clone must not share tag storage")
}

func TestItemHasTag(t *testing.T) {
	it := Item{ID: "1", Tags: []string{"go", "rust"}}
	assert.True(t, it.HasTag("go"))
	assert.False(t, it.HasTag("zig"))
}

func TestNormalizeTags(t *testing.T) {
	assert.Nil(t, NormalizeTags(nil))
	assert.Equal(t, []string{}, NormalizeTags([]string{}))
	assert.Equal(t, []string{"a", "b"}, NormalizeTags([]string{" b", "a", "b "}))
}

func TestEntitySealed(t *testing.T) {
	entities := []Entity{Item{ID: "1"}, Tag{Name: "x"}}
	var kinds []Kind
	for _, e := range entities {
		switch e.(type) {
		case Item, Tag:
			kinds = append(kinds, e.EntityKind())
		}
	}
	assert.Equal(t, Kinds(), kinds)
	assert.Equal(t, "1", entities[0].EntityID())
	assert.Equal(t, "x", entities[1].EntityID())
}

func TestParseTypeOfList(t *testing.T) {
	for _, l := range Lists() {
		got, err := ParseTypeOfList(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	got, err := ParseTypeOfList("mylist")
	require.NoError(t, err)
	assert.Equal(t, ListMyList, got)

	_, err = ParseTypeOfList("later")
	assert.Error(t, err)
}

func TestTombstone(t *testing.T) {
	rec := Tombstone("2")
	assert.Equal(t, KindItem, rec.Kind)
	assert.Equal(t, StatusDeleted, rec.Status)
}
