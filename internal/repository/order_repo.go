package repository

import (
	"time"

	"crumble/internal/domain"
	"crumble/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists the order and its items in one transaction.
func (r *OrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
}

// Delete removes an order and its items. Only used to back out an order whose
// wallet debit failed during placement.
func (r *OrderRepository) Delete(orderID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, orderID).Error
	})
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.Preload("Items").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByUser(userID uint, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.Where("user_id = ?", userID).Preload("Items").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *OrderRepository) ListByStatus(status string, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	q := r.db.Preload("Items").Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&list).Error
	return list, err
}

// ClaimStatus moves the order from to the target status in a single
// conditional UPDATE. Returns false when the order was no longer in the
// expected source status, which makes duplicate transition events no-ops.
func (r *OrderRepository) ClaimStatus(orderID uint, from, to string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	now := time.Now()
	switch to {
	case domain.OrderStatusDelivered:
		updates["delivered_at"] = now
	case domain.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountDelivered counts a user's delivered orders, excluding one order id.
// Used to detect the first-ever delivery for referral completion.
func (r *OrderRepository) CountDelivered(userID uint, excludeOrderID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("user_id = ? AND status = ? AND id <> ?", userID, domain.OrderStatusDelivered, excludeOrderID).
		Count(&count).Error
	return count, err
}

// CountWithPromo counts a user's non-cancelled orders that used the promo
// code. The orders table doubles as the per-customer usage record.
func (r *OrderRepository) CountWithPromo(userID uint, code string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("user_id = ? AND promo_code = ? AND status <> ?", userID, code, domain.OrderStatusCancelled).
		Count(&count).Error
	return count, err
}
