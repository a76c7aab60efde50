package repository

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"crumble/internal/domain"
	"crumble/internal/models"

	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// generateReferralCode returns an 8-character uppercase hex code.
func generateReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// GetOrCreateCode returns the existing referral code for a user, or creates a
// new unique one.
func (r *ReferralRepository) GetOrCreateCode(userID uint) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	if err := r.db.Where("user_id = ?", userID).First(&rc).Error; err == nil {
		return &rc, nil
	}
	for i := 0; i < 10; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, err
		}
		rc = models.ReferralCode{UserID: userID, Code: code, IsActive: true}
		if err := r.db.Create(&rc).Error; err == nil {
			return &rc, nil
		}
		// Collision: retry with new code
	}
	return nil, fmt.Errorf("failed to generate a unique referral code after retries")
}

// GetByCode returns an active ReferralCode record matching the given code.
func (r *ReferralRepository) GetByCode(code string) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	err := r.db.Where("code = ? AND is_active = ?", strings.ToUpper(code), true).First(&rc).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

func (r *ReferralRepository) CreateReferral(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

// GetByRefereeID returns the referral in which the user is the referee.
func (r *ReferralRepository) GetByRefereeID(userID uint) (*models.Referral, error) {
	var ref models.Referral
	err := r.db.Where("referee_id = ?", userID).First(&ref).Error
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *ReferralRepository) GetByID(id uint) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.First(&ref, id).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *ReferralRepository) ListByReferrerID(referrerID uint, limit, offset int) ([]models.Referral, error) {
	var list []models.Referral
	err := r.db.Where("referrer_id = ?", referrerID).
		Preload("Referee").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *ReferralRepository) CountCompletedByReferrer(referrerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Referral{}).
		Where("referrer_id = ? AND status = ?", referrerID, domain.ReferralStatusCompleted).
		Count(&count).Error
	return count, err
}

// ClaimComplete marks a pending referral completed and records the first
// delivered order that completed it. Returns false when the referral was
// already completed by an earlier event.
func (r *ReferralRepository) ClaimComplete(referralID, firstOrderID uint) (bool, error) {
	res := r.db.Model(&models.Referral{}).
		Where("id = ? AND status = ?", referralID, domain.ReferralStatusPending).
		Updates(map[string]interface{}{
			"status":         domain.ReferralStatusCompleted,
			"first_order_id": firstOrderID,
			"completed_at":   time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClaimReferrerCredited flips referrer_bonus_credited false -> true once.
func (r *ReferralRepository) ClaimReferrerCredited(referralID uint) (bool, error) {
	res := r.db.Model(&models.Referral{}).
		Where("id = ? AND referrer_bonus_credited = ?", referralID, false).
		Update("referrer_bonus_credited", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClaimRefereeCredited flips referee_bonus_credited false -> true once.
func (r *ReferralRepository) ClaimRefereeCredited(referralID uint) (bool, error) {
	res := r.db.Model(&models.Referral{}).
		Where("id = ? AND referee_bonus_credited = ?", referralID, false).
		Update("referee_bonus_credited", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RevertReferrerCredited flips the flag back after a failed wallet credit so a
// later delivery event can pay the bonus.
func (r *ReferralRepository) RevertReferrerCredited(referralID uint) error {
	return r.db.Model(&models.Referral{}).
		Where("id = ? AND referrer_bonus_credited = ?", referralID, true).
		Update("referrer_bonus_credited", false).Error
}

// RevertRefereeCredited flips the flag back after a failed wallet credit.
func (r *ReferralRepository) RevertRefereeCredited(referralID uint) error {
	return r.db.Model(&models.Referral{}).
		Where("id = ? AND referee_bonus_credited = ?", referralID, true).
		Update("referee_bonus_credited", false).Error
}
