package application

import (
	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

// RepairDates fills the blank dates the shopper center leaves on repeated
// rows of a same-day group (the upstream renders the date only on the first
// row of the group). Resolution is a single left-to-right pass over the
// original stream: a blank row inherits the last confirmed date to its
// left, and a leading run of blanks inherits the first confirmed date to
// its right. Inferred dates never feed further inference.
//
// Output has the same length and order as the input, with every
// originally-known date untouched. Returns domain.ErrNoDateAnchor when no
// row carries a known date.
func RepairDates(rows []domain.DeliveryRecord) ([]domain.DeliveryRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	anchor := -1
	for i := range rows {
		if !rows[i].Date.IsZero() {
			anchor = i
			break
		}
	}
	if anchor == -1 {
		return nil, domain.ErrNoDateAnchor
	}

	repaired := make([]domain.DeliveryRecord, len(rows))
	copy(repaired, rows)

	for i := 0; i < anchor; i++ {
		repaired[i].Date = rows[anchor].Date
	}

	last := rows[anchor].Date
	for i := anchor + 1; i < len(rows); i++ {
		if rows[i].Date.IsZero() {
			repaired[i].Date = last
			continue
		}
		last = rows[i].Date
	}

	return repaired, nil
}
