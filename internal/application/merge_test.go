package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

func TestMergeOrdersSumsCommissionsPerDelivery(t *testing.T) {
	deliveries := []domain.DeliveryRecord{
		{ID: "a", Date: day(10)},
		{ID: "b", Date: day(10)},
	}
	commissions := []domain.CommissionRecord{
		{ID: "a", Amount: 100},
		{ID: "a", Amount: 50},
		{ID: "c", Amount: 999},
	}

	buckets := MergeOrders(deliveries, commissions)

	key := domain.DayKeyFor(day(10))
	require.True(t, buckets.Has(key))
	entries := buckets[key]
	require.Len(t, entries, 2)

	// Delivery a collects both of its commissions, delivery b stays at
	// zero, and commission c has no delivery so it never becomes an entry.
	assert.Equal(t, domain.Money(150), entries["a"].Amount)
	assert.Equal(t, domain.Money(0), entries["b"].Amount)
	assert.Equal(t, domain.Money(150), buckets.Total(key))
}

func TestMergeOrdersFirstDeliveryWins(t *testing.T) {
	deliveries := []domain.DeliveryRecord{
		{ID: "a", Date: day(10)},
		{ID: "a", Date: day(9)},
	}

	buckets := MergeOrders(deliveries, nil)

	require.True(t, buckets.Has(domain.DayKeyFor(day(10))))
	assert.False(t, buckets.Has(domain.DayKeyFor(day(9))))
}

func TestMergeOrdersBucketsByDeliveryDay(t *testing.T) {
	deliveries := []domain.DeliveryRecord{
		{ID: "a", Date: day(10)},
		{ID: "b", Date: day(9)},
	}
	commissions := []domain.CommissionRecord{
		{ID: "a", Amount: 100, PaymentDate: day(12)},
		{ID: "b", Amount: 200, PaymentDate: day(12)},
	}

	buckets := MergeOrders(deliveries, commissions)

	// Payment dates play no part in bucketing.
	assert.Equal(t, domain.Money(100), buckets.Total(domain.DayKeyFor(day(10))))
	assert.Equal(t, domain.Money(200), buckets.Total(domain.DayKeyFor(day(9))))
	assert.False(t, buckets.Has(domain.DayKeyFor(day(12))))
}

func TestMergeOrdersIsIdempotentOverFullLists(t *testing.T) {
	deliveries := []domain.DeliveryRecord{{ID: "a", Date: day(10)}}
	commissions := []domain.CommissionRecord{{ID: "a", Amount: 75}}

	first := MergeOrders(deliveries, commissions)
	second := MergeOrders(deliveries, commissions)

	assert.Equal(t, first, second)
}

func TestMergeOrdersEmptyInputs(t *testing.T) {
	buckets := MergeOrders(nil, nil)
	assert.Empty(t, buckets)
}
