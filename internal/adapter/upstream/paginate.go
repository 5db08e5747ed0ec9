package upstream

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"adpilot/internal/core/port"
)

// Paginate lazily walks the pages returned by fetch, using the page size
// and page limit of c. fetch is expected to be a Platform method so that
// every page is paced. The sequence ends when the upstream reports no more
// data, a page comes back empty, MaxPages is reached, the consumer stops or
// ctx is done. A failed page is yielded as an error and ends the sequence.
// Every call starts again from page 1.
func Paginate[T any](
	ctx context.Context,
	c *Client,
	op string,
	fetch func(ctx context.Context, page port.PageRequest) (port.Page[T], error),
) iter.Seq2[port.Page[T], error] {
	return func(yield func(port.Page[T], error) bool) {
		for n := 1; ; n++ {
			if n > c.cfg.MaxPages {
				c.logger.Warn("pagination stopped at page limit",
					slog.String("op", op), slog.Int("max_pages", c.cfg.MaxPages))
				return
			}
			if err := ctx.Err(); err != nil {
				yield(port.Page[T]{}, fmt.Errorf("%s: %w", op, err))
				return
			}

			page, err := fetch(ctx, port.PageRequest{Page: n, Size: c.cfg.PageSize})
			if err != nil {
				yield(port.Page[T]{}, fmt.Errorf("%s page %d: %w", op, n, err))
				return
			}
			if len(page.Items) == 0 {
				return
			}
			page.Number = n
			if !yield(page, nil) {
				return
			}
			if !page.HasMore {
				return
			}
		}
	}
}

// Collect drains a page sequence into one slice.
func Collect[T any](seq iter.Seq2[port.Page[T], error]) ([]T, error) {
	var out []T
	for page, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, page.Items...)
	}
	return out, nil
}
