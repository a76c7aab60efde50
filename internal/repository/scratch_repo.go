package repository

import (
	"errors"
	"time"

	"crumble/internal/domain"
	"crumble/internal/models"

	"gorm.io/gorm"
)

type ScratchRepository struct {
	db *gorm.DB
}

func NewScratchRepository(db *gorm.DB) *ScratchRepository {
	return &ScratchRepository{db: db}
}

// Create inserts the card. The unique index on order_id makes concurrent
// creates for the same order collapse to one row; the loser reloads the
// winner's card.
func (r *ScratchRepository) Create(card *models.ScratchCard) (*models.ScratchCard, error) {
	err := r.db.Create(card).Error
	if err == nil {
		return card, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.GetByOrderID(card.OrderID)
	}
	return nil, err
}

func (r *ScratchRepository) GetByID(id uint) (*models.ScratchCard, error) {
	var c models.ScratchCard
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ScratchRepository) GetByOrderID(orderID uint) (*models.ScratchCard, error) {
	var c models.ScratchCard
	if err := r.db.Where("order_id = ?", orderID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ScratchRepository) ListByUser(userID uint, limit, offset int) ([]models.ScratchCard, error) {
	var list []models.ScratchCard
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// ClaimStatus advances the card from -> to in one conditional UPDATE and
// reports whether this caller won the transition.
func (r *ScratchRepository) ClaimStatus(cardID uint, from, to string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	now := time.Now()
	switch to {
	case domain.ScratchStatusRevealed:
		updates["revealed_at"] = now
	case domain.ScratchStatusCredited:
		updates["credited_at"] = now
	}
	res := r.db.Model(&models.ScratchCard{}).
		Where("id = ? AND status = ?", cardID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ExpireForOrder expires a not-yet-credited card when its order is cancelled.
func (r *ScratchRepository) ExpireForOrder(orderID uint) error {
	return r.db.Model(&models.ScratchCard{}).
		Where("order_id = ? AND status IN ?", orderID,
			[]string{domain.ScratchStatusPending, domain.ScratchStatusRevealed}).
		Update("status", domain.ScratchStatusExpired).Error
}
