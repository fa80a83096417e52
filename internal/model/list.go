package model

import (
	"fmt"
	"strings"
)

// TypeOfList selects one of the fixed item lists shown by the client.
type TypeOfList int

const (
	// ListAll is every stored item.
	ListAll TypeOfList = iota
	// ListMyList is the unread inbox.
	ListMyList
	// ListFavorites is every favorited item.
	ListFavorites
	// ListArchive is every archived item.
	ListArchive
)

// Lists returns every list type in display order.
func Lists() []TypeOfList {
	return []TypeOfList{ListAll, ListMyList, ListFavorites, ListArchive}
}

func (l TypeOfList) String() string {
	switch l {
	case ListAll:
		return "all"
	case ListMyList:
		return "my-list"
	case ListFavorites:
		return "favorites"
	case ListArchive:
		return "archive"
	default:
		return fmt.Sprintf("list(%d)", int(l))
	}
}

// ParseTypeOfList parses a list name as printed by String.
// "mylist" and "my_list" are accepted for my-list.
func ParseTypeOfList(s string) (TypeOfList, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return ListAll, nil
	case "my-list", "mylist", "my_list", "unread":
		return ListMyList, nil
	case "favorites", "favourites":
		return ListFavorites, nil
	case "archive", "archived":
		return ListArchive, nil
	}
	return 0, fmt.Errorf("unknown list %q: must be one of all, my-list, favorites, archive", s)
}
