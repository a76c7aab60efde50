package service

import (
	"time"

	"crumble/internal/domain"
	"crumble/internal/models"
)

// PromoStore is the persistence contract for promo codes.
type PromoStore interface {
	GetActiveByCode(code string) (*models.PromoCode, error)
	IncrementUsage(id uint) (bool, error)
}

// PromoUsageCounter checks how often a customer has already used a code. The
// orders table is the usage record.
type PromoUsageCounter interface {
	CountWithPromo(userID uint, code string) (int64, error)
}

// PromoService validates promo codes and computes the discount they grant.
type PromoService struct {
	promos PromoStore
	usage  PromoUsageCounter
}

func NewPromoService(promos PromoStore, usage PromoUsageCounter) *PromoService {
	return &PromoService{promos: promos, usage: usage}
}

// Quote validates the code against the subtotal and the customer's history and
// returns the code row plus the discount amount. It does not consume usage;
// the coordinator increments usage only after the order is placed.
func (s *PromoService) Quote(userID uint, code string, subtotal int64) (*models.PromoCode, int64, error) {
	p, err := s.promos.GetActiveByCode(code)
	if err != nil {
		return nil, 0, ErrPromoInvalid
	}
	if p.ExpiresAt != nil && time.Now().After(*p.ExpiresAt) {
		return nil, 0, ErrPromoExpired
	}
	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return nil, 0, ErrPromoExhausted
	}
	if subtotal < p.MinOrderValue {
		return nil, 0, ErrPromoMinOrder
	}
	used, err := s.usage.CountWithPromo(userID, p.Code)
	if err != nil {
		return nil, 0, err
	}
	if used > 0 {
		return nil, 0, ErrPromoAlreadyUsed
	}

	var discount int64
	switch p.Type {
	case domain.PromoTypeFlat:
		discount = p.Value
	case domain.PromoTypePercent:
		discount = subtotal * p.Value / 100
		if p.MaxDiscount > 0 && discount > p.MaxDiscount {
			discount = p.MaxDiscount
		}
	default:
		return nil, 0, ErrPromoInvalid
	}
	if discount > subtotal {
		discount = subtotal
	}
	return p, discount, nil
}

// Consume burns one usage of the code after successful order placement.
func (s *PromoService) Consume(p *models.PromoCode) (bool, error) {
	return s.promos.IncrementUsage(p.ID)
}
