package tasks

import (
	"context"
	"fmt"
	"iter"

	"github.com/desertthunder/combitify/internal/shared"
)

// Page is one bounded response of a paginated collection along with the reported total.
type Page[T any] struct {
	Total int
	Items []T
}

// PageFunc requests limit items starting at offset.
type PageFunc[T any] func(ctx context.Context, offset, limit int) (*Page[T], error)

// FetchAllPages returns a lazy sequence over the pages of a collection.
//
// Nothing is requested until the sequence is ranged over, and each range starts again at offset 0.
// Requests ask for pageSize items at an offset equal to the number already retrieved, and stop once
// that count reaches the total reported by the most recent page. Items beyond that total are dropped.
// A failed request, or a page that returns no items before the total is reached, yields a single
// [*FetchFailedError] and ends the sequence.
func FetchAllPages[T any](ctx context.Context, resourceID string, pageSize int, fetch PageFunc[T]) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		if pageSize <= 0 {
			yield(nil, fmt.Errorf("%w: page size must be positive, got %d", shared.ErrInvalidArgument, pageSize))
			return
		}

		retrieved := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, &FetchFailedError{ResourceID: resourceID, Offset: retrieved, Err: err})
				return
			}

			page, err := fetch(ctx, retrieved, pageSize)
			if err != nil {
				yield(nil, &FetchFailedError{
					ResourceID: resourceID,
					Offset:     retrieved,
					StatusCode: statusCode(err),
					Err:        err,
				})
				return
			}
			if page == nil {
				page = &Page[T]{}
			}

			if len(page.Items) == 0 && retrieved < page.Total {
				yield(nil, &FetchFailedError{
					ResourceID: resourceID,
					Offset:     retrieved,
					Err:        fmt.Errorf("%w: %d of %d retrieved", shared.ErrNoProgress, retrieved, page.Total),
				})
				return
			}

			if remaining := page.Total - retrieved; len(page.Items) > remaining {
				page.Items = page.Items[:max(remaining, 0)]
			}

			retrieved += len(page.Items)
			if len(page.Items) > 0 && !yield(page.Items, nil) {
				return
			}

			if retrieved >= page.Total {
				return
			}
		}
	}
}
