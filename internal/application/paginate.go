package application

import (
	"context"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

// PageFunc produces the next page of a most-recent-first feed. hasMore
// reports whether another page exists after the one returned.
type PageFunc[R any] func(ctx context.Context) (rows []R, hasMore bool, err error)

// StopFunc inspects one freshly fetched page and decides whether fetching
// should stop. keep is the number of leading rows of that page to retain;
// it is ignored unless stop is true. Predicates may carry state across
// pages (e.g. a distinct-date counter).
type StopFunc[R any] func(page []R) (keep int, stop bool)

// FetchNewRows pulls pages until a stop predicate fires or the feed runs
// out, returning the accumulated rows in original page order. When several
// predicates fire on the same page the smallest keep wins. Page-fetch
// errors propagate as-is; nothing fetched so far is returned alongside
// them, so the caller decides whether to retry from scratch.
func FetchNewRows[R any](ctx context.Context, next PageFunc[R], stops ...StopFunc[R]) ([]R, error) {
	var out []R
	for {
		rows, hasMore, err := next(ctx)
		if err != nil {
			return nil, err
		}

		keep := len(rows)
		stop := false
		for _, predicate := range stops {
			k, ok := predicate(rows)
			if !ok {
				continue
			}
			stop = true
			if k < keep {
				keep = k
			}
		}

		out = append(out, rows[:keep]...)
		if stop || !hasMore {
			return out, nil
		}
	}
}

// StopAtKnownID stops at the first row whose id matches the sync cursor,
// keeping only the rows before it: the matched row and everything after it
// (older, in fetch order) were seen on a previous sync. A blank id never
// matches, so a fresh session paginates to the end of the feed.
func StopAtKnownID[R any](known domain.OrderID, idOf func(R) domain.OrderID) StopFunc[R] {
	return func(page []R) (int, bool) {
		if known == "" {
			return len(page), false
		}
		for i := range page {
			if idOf(page[i]) == known {
				return i, true
			}
		}
		return len(page), false
	}
}

// StopAfterDistinctDates stops fetching further pages once the rows seen so
// far span at least quota distinct day keys. The triggering page is kept
// whole. This bounds pagination on the commission feed, which has no
// cursor-visible end: commissions settle in short cycles, so a few distinct
// payment dates cover everything new.
func StopAfterDistinctDates[R any](quota int, dayOf func(R) domain.DayKey) StopFunc[R] {
	seen := make(map[domain.DayKey]struct{}, quota)
	return func(page []R) (int, bool) {
		for i := range page {
			seen[dayOf(page[i])] = struct{}{}
		}
		return len(page), len(seen) >= quota
	}
}
