package service

import (
	"math"

	"crumble/config"
)

// LineItem is one priced cart line. AddOnPrice covers optional extras (candle
// packs, message plaques, combo upgrades) charged per unit.
type LineItem struct {
	UnitPrice  int64
	Quantity   int
	AddOnPrice int64
}

// PricingInput carries everything the calculator needs; the calculator itself
// touches no storage.
type PricingInput struct {
	Items           []LineItem
	PromoDiscount   int64
	WalletRequested int64
	WalletBalance   int64
}

// PricingResult holds the final price and every intermediate. All of these are
// persisted on the order so audits never re-derive history from mutable state.
type PricingResult struct {
	Subtotal           int64 `json:"subtotal"`
	PromoDiscount      int64 `json:"promo_discount"`
	SubtotalAfterPromo int64 `json:"subtotal_after_promo"`
	DeliveryCharge     int64 `json:"delivery_charge"`
	TotalBeforeWallet  int64 `json:"total_before_wallet"`
	WalletUsed         int64 `json:"wallet_used"`
	Total              int64 `json:"total"`
}

// PricingCalculator prices a cart: subtotal, promo discount, delivery-charge
// waiver above the free-delivery threshold, capped wallet redemption, and the
// final total floored at zero.
type PricingCalculator struct {
	cfg config.IncentiveConfig
}

func NewPricingCalculator(cfg config.IncentiveConfig) *PricingCalculator {
	return &PricingCalculator{cfg: cfg}
}

// WalletCap returns the maximum wallet amount redeemable against an order:
// min(balance, WalletCapPercent of the pre-wallet total).
func (c *PricingCalculator) WalletCap(totalBeforeWallet, balance int64) int64 {
	cap := int64(math.Floor(float64(totalBeforeWallet) * c.cfg.WalletCapPercent))
	if balance < cap {
		cap = balance
	}
	if cap < 0 {
		cap = 0
	}
	return cap
}

func (c *PricingCalculator) Price(in PricingInput) (PricingResult, error) {
	if len(in.Items) == 0 {
		return PricingResult{}, ErrEmptyCart
	}
	var subtotal int64
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return PricingResult{}, ErrInvalidQuantity
		}
		if item.UnitPrice < 0 || item.AddOnPrice < 0 {
			return PricingResult{}, ErrInvalidAmount
		}
		subtotal += (item.UnitPrice + item.AddOnPrice) * int64(item.Quantity)
	}

	promo := in.PromoDiscount
	if promo < 0 {
		return PricingResult{}, ErrInvalidAmount
	}
	if promo > subtotal {
		promo = subtotal
	}
	subtotalAfterPromo := subtotal - promo

	var delivery int64
	if subtotal < c.cfg.FreeDeliveryThreshold {
		delivery = c.cfg.DeliveryCharge
	}
	totalBeforeWallet := subtotalAfterPromo + delivery

	if in.WalletRequested < 0 {
		return PricingResult{}, ErrInvalidAmount
	}
	walletUsed := in.WalletRequested
	if walletUsed > 0 {
		cap := c.WalletCap(totalBeforeWallet, in.WalletBalance)
		if walletUsed > cap {
			return PricingResult{}, &WalletCapError{Requested: walletUsed, Cap: cap}
		}
	}

	total := totalBeforeWallet - walletUsed
	if total < 0 {
		total = 0
	}
	return PricingResult{
		Subtotal:           subtotal,
		PromoDiscount:      promo,
		SubtotalAfterPromo: subtotalAfterPromo,
		DeliveryCharge:     delivery,
		TotalBeforeWallet:  totalBeforeWallet,
		WalletUsed:         walletUsed,
		Total:              total,
	}, nil
}
