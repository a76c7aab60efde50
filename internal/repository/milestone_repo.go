package repository

import (
	"errors"

	"crumble/internal/models"

	"gorm.io/gorm"
)

var ErrAlreadyAwarded = errors.New("milestone already awarded")

type MilestoneRepository struct {
	db *gorm.DB
}

func NewMilestoneRepository(db *gorm.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// CreateAward inserts the award row. The (user_id, level) unique index turns a
// repeat award into ErrAlreadyAwarded, which is the whole idempotency story
// for milestone bonuses.
func (r *MilestoneRepository) CreateAward(award *models.MilestoneAward) error {
	err := r.db.Create(award).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyAwarded
	}
	return err
}

// DeleteAward removes the award row, releasing the uniqueness gate so the
// level can be awarded again after a failed wallet credit.
func (r *MilestoneRepository) DeleteAward(userID uint, level int) error {
	return r.db.Where("user_id = ? AND level = ?", userID, level).
		Delete(&models.MilestoneAward{}).Error
}

func (r *MilestoneRepository) ListByUser(userID uint) ([]models.MilestoneAward, error) {
	var list []models.MilestoneAward
	err := r.db.Where("user_id = ?", userID).Order("level ASC").Find(&list).Error
	return list, err
}
