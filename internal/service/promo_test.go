package service

import (
	"testing"
	"time"

	"crumble/internal/domain"
	"crumble/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromoService(promos map[string]*models.PromoCode, usage *memPromoUsage) *PromoService {
	if usage == nil {
		usage = &memPromoUsage{}
	}
	return NewPromoService(&memPromoStore{promos: promos}, usage)
}

func TestPromoQuoteFlat(t *testing.T) {
	svc := newPromoService(map[string]*models.PromoCode{
		"SWEET20": {ID: 1, Code: "SWEET20", Type: domain.PromoTypeFlat, Value: 20, IsActive: true},
	}, nil)

	p, discount, err := svc.Quote(1, "SWEET20", 300)
	require.NoError(t, err)
	assert.Equal(t, "SWEET20", p.Code)
	assert.Equal(t, int64(20), discount)
}

func TestPromoQuotePercentWithMaxDiscount(t *testing.T) {
	svc := newPromoService(map[string]*models.PromoCode{
		"TREAT10": {ID: 1, Code: "TREAT10", Type: domain.PromoTypePercent, Value: 10, MaxDiscount: 75, IsActive: true},
	}, nil)

	_, discount, err := svc.Quote(1, "TREAT10", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(50), discount)

	// 10% of 2000 is 200, capped at 75.
	_, discount, err = svc.Quote(1, "TREAT10", 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(75), discount)
}

func TestPromoQuoteValidation(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	svc := newPromoService(map[string]*models.PromoCode{
		"GONE":  {ID: 1, Code: "GONE", Type: domain.PromoTypeFlat, Value: 20, ExpiresAt: &past, IsActive: true},
		"BURNT": {ID: 2, Code: "BURNT", Type: domain.PromoTypeFlat, Value: 20, UsageLimit: 5, UsedCount: 5, IsActive: true},
		"BIG":   {ID: 3, Code: "BIG", Type: domain.PromoTypeFlat, Value: 100, MinOrderValue: 1000, IsActive: true},
	}, nil)

	_, _, err := svc.Quote(1, "NOPE", 300)
	assert.ErrorIs(t, err, ErrPromoInvalid)

	_, _, err = svc.Quote(1, "GONE", 300)
	assert.ErrorIs(t, err, ErrPromoExpired)

	_, _, err = svc.Quote(1, "BURNT", 300)
	assert.ErrorIs(t, err, ErrPromoExhausted)

	_, _, err = svc.Quote(1, "BIG", 300)
	assert.ErrorIs(t, err, ErrPromoMinOrder)
}

func TestPromoQuotePerCustomerReuse(t *testing.T) {
	usage := &memPromoUsage{counts: map[uint]map[string]int64{
		1: {"SWEET20": 1},
	}}
	svc := newPromoService(map[string]*models.PromoCode{
		"SWEET20": {ID: 1, Code: "SWEET20", Type: domain.PromoTypeFlat, Value: 20, IsActive: true},
	}, usage)

	_, _, err := svc.Quote(1, "SWEET20", 300)
	assert.ErrorIs(t, err, ErrPromoAlreadyUsed)

	// A different customer can still use it.
	_, discount, err := svc.Quote(2, "SWEET20", 300)
	require.NoError(t, err)
	assert.Equal(t, int64(20), discount)
}

func TestPromoConsumeRespectsUsageLimit(t *testing.T) {
	store := &memPromoStore{promos: map[string]*models.PromoCode{
		"LAST": {ID: 1, Code: "LAST", Type: domain.PromoTypeFlat, Value: 20, UsageLimit: 1, IsActive: true},
	}}
	svc := NewPromoService(store, &memPromoUsage{})

	p, _, err := svc.Quote(1, "LAST", 300)
	require.NoError(t, err)

	ok, err := svc.Consume(p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Consume(p)
	require.NoError(t, err)
	assert.False(t, ok)
}
