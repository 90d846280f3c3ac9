package content

// ListingState tells a page how a fetch ended.
type ListingState int

const (
	ListingEmpty ListingState = iota
	ListingPopulated
	ListingFetchFailed
)

func (s ListingState) String() string {
	switch s {
	case ListingPopulated:
		return "populated"
	case ListingFetchFailed:
		return "fetch_failed"
	default:
		return "empty"
	}
}

// Listing is the result of fetching a collection. A failed fetch is reported
// as its own state so callers decide whether it should look like no data.
type Listing[T any] struct {
	Items []T
	State ListingState
	Err   error
}

func newListing[T any](items []T, err error) Listing[T] {
	if err != nil {
		return Listing[T]{Items: []T{}, State: ListingFetchFailed, Err: err}
	}
	if len(items) == 0 {
		return Listing[T]{Items: []T{}, State: ListingEmpty}
	}
	return Listing[T]{Items: items, State: ListingPopulated}
}

// OrEmpty returns the items, treating a failed fetch as an empty collection.
func (l Listing[T]) OrEmpty() []T {
	if l.Items == nil {
		return []T{}
	}
	return l.Items
}

// Failed reports whether the fetch failed.
func (l Listing[T]) Failed() bool {
	return l.State == ListingFetchFailed
}

// Len is the number of items.
func (l Listing[T]) Len() int {
	return len(l.Items)
}
