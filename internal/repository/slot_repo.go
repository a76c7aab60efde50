package repository

import (
	"errors"
	"time"

	"crumble/internal/models"

	"gorm.io/gorm"
)

var ErrSlotFull = errors.New("delivery slot is full")

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Create(s *models.DeliverySlot) error {
	return r.db.Create(s).Error
}

func (r *SlotRepository) Update(s *models.DeliverySlot) error {
	return r.db.Save(s).Error
}

func (r *SlotRepository) GetByID(id uint) (*models.DeliverySlot, error) {
	var s models.DeliverySlot
	if err := r.db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListUpcoming returns active future slots that still have capacity.
func (r *SlotRepository) ListUpcoming(from time.Time, limit int) ([]models.DeliverySlot, error) {
	var list []models.DeliverySlot
	err := r.db.Where("is_active = ? AND date >= ? AND booked < capacity", true, from).
		Order("date ASC, start_time ASC").Limit(limit).Find(&list).Error
	return list, err
}

// Book takes one unit of capacity with a conditional increment; ErrSlotFull
// when the slot filled up between listing and booking.
func (r *SlotRepository) Book(id uint) error {
	res := r.db.Model(&models.DeliverySlot{}).
		Where("id = ? AND is_active = ? AND booked < capacity", id, true).
		UpdateColumn("booked", gorm.Expr("booked + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSlotFull
	}
	return nil
}

// Release returns one unit of capacity when an order is cancelled.
func (r *SlotRepository) Release(id uint) error {
	return r.db.Model(&models.DeliverySlot{}).
		Where("id = ? AND booked > 0", id).
		UpdateColumn("booked", gorm.Expr("booked - 1")).Error
}
