package domain

import "time"

type OrderID string

// Money is an amount in Chilean pesos. The shopper center renders whole
// pesos only, so no fractional unit is carried.
type Money int64

// DayKey identifies a calendar day in ISO form (2006-01-02).
type DayKey string

func DayKeyFor(t time.Time) DayKey {
	return DayKey(t.Format("2006-01-02"))
}

// DeliveryRecord is one row of the delivery-history source. A zero Date
// means the upstream table blanked the cell and the date still needs to be
// inferred from neighboring rows.
type DeliveryRecord struct {
	ID   OrderID
	Date time.Time
}

// CommissionRecord is one row of the commission-history source. PaymentDate
// only drives pagination stop conditions; it is not part of the ledger.
type CommissionRecord struct {
	ID          OrderID
	Amount      Money
	PaymentDate time.Time
}

// LedgerEntry is one reconciled order: the delivery date plus every
// commission amount paid against the same order id.
type LedgerEntry struct {
	ID     OrderID
	Date   time.Time
	Amount Money
}

// DayBuckets groups ledger entries by the calendar day of their delivery
// date. Every entry lives in exactly one bucket.
type DayBuckets map[DayKey]map[OrderID]LedgerEntry

func (b DayBuckets) Has(key DayKey) bool {
	_, ok := b[key]
	return ok
}

func (b DayBuckets) Total(key DayKey) Money {
	var total Money
	for _, entry := range b[key] {
		total += entry.Amount
	}
	return total
}
