package repository

import (
	"errors"

	"crumble/internal/models"

	"gorm.io/gorm"
)

var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// WalletRepository owns the cached balance column on users and the append-only
// wallet_transactions ledger. Balance updates are single atomic UPDATEs so
// concurrent writers cannot lose increments.
type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Balance(userID uint) (int64, error) {
	var u models.User
	if err := r.db.Select("wallet_balance").First(&u, userID).Error; err != nil {
		return 0, err
	}
	return u.WalletBalance, nil
}

// AtomicCredit adds amount to the cached balance in one UPDATE.
func (r *WalletRepository) AtomicCredit(userID uint, amount int64) error {
	res := r.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AtomicDebit subtracts amount from the cached balance, guarded so the balance
// can never go negative. RowsAffected is the gate: zero rows means the user is
// missing or the balance was too low.
func (r *WalletRepository) AtomicDebit(userID uint, amount int64) error {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND wallet_balance >= ?", userID, amount).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		r.db.Model(&models.User{}).Where("id = ?", userID).Count(&count)
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrInsufficientBalance
	}
	return nil
}

func (r *WalletRepository) RecordTransaction(tx *models.WalletTransaction) error {
	return r.db.Create(tx).Error
}

func (r *WalletRepository) ListTransactions(userID uint, limit, offset int) ([]models.WalletTransaction, error) {
	var list []models.WalletTransaction
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// LedgerSum recomputes the balance from the ledger. Used for reconciliation
// against the cached column.
func (r *WalletRepository) LedgerSum(userID uint) (int64, error) {
	var sum *int64
	err := r.db.Model(&models.WalletTransaction{}).
		Select("SUM(CASE WHEN direction = 'CREDIT' THEN amount ELSE -amount END)").
		Where("user_id = ?", userID).Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
