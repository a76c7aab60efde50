package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is a placed storefront order. Every pricing intermediate is persisted
// so history can be audited without re-deriving it from mutable promo/wallet
// state. Invariant: Total = Subtotal - PromoDiscount - WalletUsed + DeliveryCharge,
// never negative.
type Order struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"not null;index" json:"user_id"`
	Status             string         `gorm:"size:20;not null;index" json:"status"`
	Subtotal           int64          `gorm:"not null" json:"subtotal"`
	PromoCode          string         `gorm:"size:30" json:"promo_code"`
	PromoDiscount      int64          `gorm:"not null;default:0" json:"promo_discount"`
	SubtotalAfterPromo int64          `gorm:"not null" json:"subtotal_after_promo"`
	DeliveryCharge     int64          `gorm:"not null;default:0" json:"delivery_charge"`
	WalletUsed         int64          `gorm:"not null;default:0" json:"wallet_used"`
	Total              int64          `gorm:"not null" json:"total"`
	DeliverySlotID     *uint          `gorm:"index" json:"delivery_slot_id"`
	DeliveryAddress    string         `gorm:"size:500" json:"delivery_address"`
	Notes              string         `gorm:"size:500" json:"notes"`
	DeliveredAt        *time.Time     `json:"delivered_at"`
	CancelledAt        *time.Time     `json:"cancelled_at"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	User  User        `gorm:"foreignKey:UserID" json:"-"`
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a priced line of an order. UnitPrice is copied from the product
// at placement time so later catalog edits do not rewrite order history.
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	Name       string    `gorm:"size:200;not null" json:"name"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	AddOnName  string    `gorm:"size:200" json:"add_on_name"`
	AddOnPrice int64     `gorm:"not null;default:0" json:"add_on_price"`
	CreatedAt  time.Time `json:"created_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
