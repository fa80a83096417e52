// Package queryir describes the live views the client can ask for.
//
// A Query is a predicate plus a sort order over one entity kind. Queries are
// plain values: the query builder produces them, the SQL compiler turns them
// into statements, and the change notifier uses Query.Key to share one
// evaluation between subscribers of the same view.
//
// # Fixed Views
//
// Only the views the client shows can be built:
//
//	ForList(ListAll, "")        status != deleted          time_added desc, id desc
//	ForList(ListMyList, "")     status = unread            time_added desc, id desc
//	ForList(ListFavorites, "")  favorite = true            time_updated desc, id desc
//	ForList(ListArchive, "")    status = archived          time_updated desc, id desc
//	ForTag(name)                status != deleted AND tag  status asc, time_added desc, id desc
//	TagListing()                tag has items              name asc
//
// A non-empty search string is conjoined with the list predicate:
// (title contains q OR url contains q) AND status != deleted.
//
// # Total Order
//
// Every order ends with the entity identifier (id for items, name for tags).
// Two re-queries over the same data therefore always return the same
// sequence, which the notifier's diff relies on. Validate enforces this.
//
// # Text Matching
//
// Contains and TagNameContains match case- and diacritic-insensitively
// (see package textfold). The text is stored as given; folding happens at
// compile time.
//
// # Sealed Predicates
//
// Predicate is sealed with a marker method so backends can switch
// exhaustively over the predicate types defined here.
package queryir
