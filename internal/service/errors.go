package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart         = errors.New("cart has no items")
	ErrInvalidQuantity   = errors.New("item quantity must be at least 1")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidState      = errors.New("invalid state for this operation")
	ErrOrderNotDelivered = errors.New("order is not delivered yet")
	ErrInvalidCode       = errors.New("invalid referral code")
	ErrSelfReferral      = errors.New("cannot use your own referral code")
	ErrAlreadyReferred   = errors.New("user already has a referral")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOrderTerminal     = errors.New("order is in a terminal status")

	ErrPromoInvalid     = errors.New("promo code is invalid or inactive")
	ErrPromoExpired     = errors.New("promo code has expired")
	ErrPromoExhausted   = errors.New("promo code usage limit reached")
	ErrPromoMinOrder    = errors.New("order subtotal below promo minimum")
	ErrPromoAlreadyUsed = errors.New("promo code already used by this customer")
)

// WalletCapError reports a wallet redemption request above the allowed cap.
// The engine never silently over-redeems; the caller must resubmit with an
// amount within Cap.
type WalletCapError struct {
	Requested int64
	Cap       int64
}

func (e *WalletCapError) Error() string {
	return fmt.Sprintf("wallet redemption %d exceeds cap %d", e.Requested, e.Cap)
}
