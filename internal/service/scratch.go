package service

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"

	"crumble/config"
	"crumble/internal/domain"
	"crumble/internal/models"

	"gorm.io/gorm"
)

// ScratchStore is the persistence contract for scratch cards. ClaimStatus is a
// conditional UPDATE returning whether this caller won the transition.
type ScratchStore interface {
	Create(card *models.ScratchCard) (*models.ScratchCard, error)
	GetByID(id uint) (*models.ScratchCard, error)
	GetByOrderID(orderID uint) (*models.ScratchCard, error)
	ListByUser(userID uint, limit, offset int) ([]models.ScratchCard, error)
	ClaimStatus(cardID uint, from, to string) (bool, error)
	ExpireForOrder(orderID uint) error
}

// ScratchCardEngine runs the per-order cashback card state machine:
// PENDING -> REVEALED -> CREDITED, with EXPIRED for cancelled orders.
type ScratchCardEngine struct {
	store    ScratchStore
	wallet   *WalletLedger
	notifier Notifier // may be nil
	cfg      config.IncentiveConfig

	// pct returns the cashback fraction; overridable in tests.
	pct func() float64
}

func NewScratchCardEngine(store ScratchStore, wallet *WalletLedger, notifier Notifier, cfg config.IncentiveConfig) *ScratchCardEngine {
	e := &ScratchCardEngine{store: store, wallet: wallet, notifier: notifier, cfg: cfg}
	e.pct = func() float64 {
		return cfg.ScratchMinPercent + rand.Float64()*(cfg.ScratchMaxPercent-cfg.ScratchMinPercent)
	}
	return e
}

// amountFor picks the card amount: round(total * U(min,max)), at least 1.
func (e *ScratchCardEngine) amountFor(orderTotal int64) int64 {
	amount := int64(math.Round(float64(orderTotal) * e.pct()))
	if amount < 1 {
		amount = 1
	}
	return amount
}

// CreateForOrder creates the order's scratch card, or returns the existing one
// unchanged. Exactly one card ever exists per order.
func (e *ScratchCardEngine) CreateForOrder(order *models.Order) (*models.ScratchCard, error) {
	if existing, err := e.store.GetByOrderID(order.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	card := &models.ScratchCard{
		UserID:  order.UserID,
		OrderID: order.ID,
		Amount:  e.amountFor(order.Total),
		Status:  domain.ScratchStatusPending,
	}
	return e.store.Create(card)
}

// Reveal is the user-initiated PENDING -> REVEALED transition. It locks in the
// visible amount but never credits the wallet.
func (e *ScratchCardEngine) Reveal(cardID, userID uint) (*models.ScratchCard, error) {
	card, err := e.store.GetByID(cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	if card.Status != domain.ScratchStatusPending {
		return nil, ErrInvalidState
	}
	won, err := e.store.ClaimStatus(card.ID, domain.ScratchStatusPending, domain.ScratchStatusRevealed)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrInvalidState
	}
	return e.store.GetByID(cardID)
}

// CreditForDelivered reveals (if needed) and credits the order's card. Safe to
// call any number of times for the same order: an already-credited card is a
// no-op, and the REVEALED -> CREDITED claim ensures at most one wallet credit.
func (e *ScratchCardEngine) CreditForDelivered(order *models.Order) error {
	if order.Status != domain.OrderStatusDelivered {
		return ErrOrderNotDelivered
	}
	card, err := e.store.GetByOrderID(order.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // order predates scratch cards, nothing to credit
		}
		return err
	}
	switch card.Status {
	case domain.ScratchStatusCredited, domain.ScratchStatusExpired:
		return nil
	case domain.ScratchStatusPending:
		// Auto-reveal cards the user never scratched.
		if _, err := e.store.ClaimStatus(card.ID, domain.ScratchStatusPending, domain.ScratchStatusRevealed); err != nil {
			return err
		}
	}
	won, err := e.store.ClaimStatus(card.ID, domain.ScratchStatusRevealed, domain.ScratchStatusCredited)
	if err != nil {
		return err
	}
	if !won {
		return nil // a concurrent delivery event credited it first
	}
	desc := fmt.Sprintf("Scratch card cashback for order #%d", order.ID)
	if err := e.wallet.Credit(card.UserID, card.Amount, domain.WalletTxOrderCashback, &card.OrderID, desc); err != nil {
		// Give the claim back so a retry can credit the wallet.
		if _, revertErr := e.store.ClaimStatus(card.ID, domain.ScratchStatusCredited, domain.ScratchStatusRevealed); revertErr != nil {
			log.Printf("[scratch] revert credit claim for card %d: %v", card.ID, revertErr)
		}
		return err
	}
	if e.notifier != nil {
		_ = e.notifier.Notify(card.UserID, domain.NotifCashbackCredited, "Cashback credited",
			fmt.Sprintf("₹%d scratch card cashback added to your wallet", card.Amount),
			map[string]interface{}{"order_id": card.OrderID, "amount": card.Amount})
	}
	return nil
}

// ExpireForOrder expires a not-yet-credited card when the order is cancelled.
// A card that was already credited stays credited.
func (e *ScratchCardEngine) ExpireForOrder(orderID uint) error {
	return e.store.ExpireForOrder(orderID)
}

func (e *ScratchCardEngine) ListForUser(userID uint, limit, offset int) ([]models.ScratchCard, error) {
	return e.store.ListByUser(userID, limit, offset)
}
