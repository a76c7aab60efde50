package service

import (
	"crumble/internal/domain"
	"crumble/internal/models"
)

// WalletStore is the persistence contract for the wallet ledger. The balance
// mutations must be single atomic UPDATEs; the debit must enforce the
// non-negative balance invariant and return repository.ErrInsufficientBalance
// when the balance is too low.
type WalletStore interface {
	Balance(userID uint) (int64, error)
	AtomicCredit(userID uint, amount int64) error
	AtomicDebit(userID uint, amount int64) error
	RecordTransaction(tx *models.WalletTransaction) error
	ListTransactions(userID uint, limit, offset int) ([]models.WalletTransaction, error)
}

// WalletLedger exposes the only two primitives allowed to touch a customer's
// balance. Every crediting engine (scratch cashback, referral, milestone,
// welcome bonus) and the order redemption path go through here; nothing else
// writes the balance.
type WalletLedger struct {
	store WalletStore
}

func NewWalletLedger(store WalletStore) *WalletLedger {
	return &WalletLedger{store: store}
}

func (l *WalletLedger) Balance(userID uint) (int64, error) {
	return l.store.Balance(userID)
}

func (l *WalletLedger) Transactions(userID uint, limit, offset int) ([]models.WalletTransaction, error) {
	return l.store.ListTransactions(userID, limit, offset)
}

// Credit adds amount to the balance and appends a ledger row.
func (l *WalletLedger) Credit(userID uint, amount int64, category string, orderID *uint, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := l.store.AtomicCredit(userID, amount); err != nil {
		return err
	}
	return l.store.RecordTransaction(&models.WalletTransaction{
		UserID:      userID,
		Direction:   domain.WalletTxDirectionCredit,
		Amount:      amount,
		Category:    category,
		OrderID:     orderID,
		Description: description,
	})
}

// Debit subtracts amount from the balance and appends a ledger row. Fails
// without mutating anything when the balance is insufficient.
func (l *WalletLedger) Debit(userID uint, amount int64, category string, orderID *uint, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := l.store.AtomicDebit(userID, amount); err != nil {
		return err
	}
	return l.store.RecordTransaction(&models.WalletTransaction{
		UserID:      userID,
		Direction:   domain.WalletTxDirectionDebit,
		Amount:      amount,
		Category:    category,
		OrderID:     orderID,
		Description: description,
	})
}
