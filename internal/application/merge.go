package application

import (
	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

// MergeOrders joins the two record streams into day-bucketed ledger
// entries. A delivery row proves the order happened and seeds a
// zero-amount entry; every commission sharing its id adds to that amount.
// Commissions without a matching delivery are dropped, never fabricated
// into entries of their own.
//
// Merging is always performed over the full accumulated lists, never over
// an increment, so re-merging after a sync cannot double count a
// commission.
func MergeOrders(deliveries []domain.DeliveryRecord, commissions []domain.CommissionRecord) domain.DayBuckets {
	ledger := make(map[domain.OrderID]domain.LedgerEntry, len(deliveries))
	for _, delivery := range deliveries {
		if _, ok := ledger[delivery.ID]; ok {
			continue
		}
		ledger[delivery.ID] = domain.LedgerEntry{ID: delivery.ID, Date: delivery.Date}
	}

	for _, commission := range commissions {
		entry, ok := ledger[commission.ID]
		if !ok {
			continue
		}
		entry.Amount += commission.Amount
		ledger[commission.ID] = entry
	}

	buckets := domain.DayBuckets{}
	for id, entry := range ledger {
		key := domain.DayKeyFor(entry.Date)
		day, ok := buckets[key]
		if !ok {
			day = map[domain.OrderID]domain.LedgerEntry{}
			buckets[key] = day
		}
		day[id] = entry
	}

	return buckets
}
