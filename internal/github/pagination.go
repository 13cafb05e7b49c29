package github

// PageFetcher fetches one 1-based page of at most perPage items
type PageFetcher[T any] func(page, perPage int) ([]T, error)

// PageIterator walks a paginated endpoint until a short page is returned
type PageIterator[T any] struct {
	fetch   PageFetcher[T]
	perPage int
	page    int
	done    bool
}

// NewPageIterator creates an iterator starting at page 1
func NewPageIterator[T any](fetch PageFetcher[T], perPage int) *PageIterator[T] {
	if perPage <= 0 {
		perPage = 30
	}
	return &PageIterator[T]{fetch: fetch, perPage: perPage, page: 1}
}

// Next returns the next page, or nil once the end has been reached
func (it *PageIterator[T]) Next() ([]T, error) {
	if it.done {
		return nil, nil
	}

	items, err := it.fetch(it.page, it.perPage)
	if err != nil {
		return nil, err
	}

	it.page++
	if len(items) < it.perPage {
		it.done = true
	}
	return items, nil
}

// FetchAll drains the iterator
func (it *PageIterator[T]) FetchAll() ([]T, error) {
	var all []T
	for {
		items, err := it.Next()
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if it.done {
			return all, nil
		}
	}
}
