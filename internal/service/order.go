package service

import (
	"errors"
	"fmt"
	"log"

	"crumble/internal/domain"
	"crumble/internal/models"

	"gorm.io/gorm"
)

// OrderStore is the persistence contract for orders. ClaimStatus is the
// serialization point for status transitions: a conditional UPDATE that only
// one of several concurrent events can win.
type OrderStore interface {
	Create(order *models.Order, items []models.OrderItem) error
	Delete(orderID uint) error
	GetByID(id uint) (*models.Order, error)
	ListByUser(userID uint, limit, offset int) ([]models.Order, error)
	ClaimStatus(orderID uint, from, to string) (bool, error)
	CountDelivered(userID uint, excludeOrderID uint) (int64, error)
}

// ProductStore loads catalog rows for order placement.
type ProductStore interface {
	GetByIDs(ids []uint) ([]models.Product, error)
}

// SlotBooker books and releases delivery-slot capacity.
type SlotBooker interface {
	Book(id uint) error
	Release(id uint) error
}

// Broadcaster pushes live order updates to connected clients.
type Broadcaster interface {
	BroadcastToUser(userID uint, payload interface{})
}

// CartItem is one storefront cart line by product id.
type CartItem struct {
	ProductID  uint   `json:"product_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	AddOnName  string `json:"add_on_name"`
	AddOnPrice int64  `json:"add_on_price"`
}

var ErrProductUnavailable = errors.New("product is unavailable")

// SideEffectReport collects the failures of best-effort work that runs after a
// successful status write. Those failures never fail the transition itself;
// they are logged for manual reconciliation.
type SideEffectReport struct {
	OrderID  uint     `json:"order_id"`
	Failures []string `json:"failures,omitempty"`
}

func (r *SideEffectReport) addf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.Failures = append(r.Failures, msg)
	log.Printf("[order] side effect failed for order %d: %s", r.OrderID, msg)
}

func (r *SideEffectReport) Failed() bool { return len(r.Failures) > 0 }

// OrderCoordinator orchestrates pricing, placement and status transitions,
// and fans delivery events out to the incentive engines.
type OrderCoordinator struct {
	orders    OrderStore
	products  ProductStore
	slots     SlotBooker
	promo     *PromoService
	wallet    *WalletLedger
	calc      *PricingCalculator
	scratch   *ScratchCardEngine
	referrals *ReferralEngine
	notifier  Notifier    // may be nil
	live      Broadcaster // may be nil

	locks *keyedLocks
}

func NewOrderCoordinator(
	orders OrderStore,
	products ProductStore,
	slots SlotBooker,
	promo *PromoService,
	wallet *WalletLedger,
	calc *PricingCalculator,
	scratch *ScratchCardEngine,
	referrals *ReferralEngine,
	notifier Notifier,
	live Broadcaster,
) *OrderCoordinator {
	return &OrderCoordinator{
		orders:    orders,
		products:  products,
		slots:     slots,
		promo:     promo,
		wallet:    wallet,
		calc:      calc,
		scratch:   scratch,
		referrals: referrals,
		notifier:  notifier,
		live:      live,
		locks:     newKeyedLocks(),
	}
}

// buildLines resolves cart items against the catalog and returns the pricing
// lines plus the order item rows with prices frozen at placement time.
func (c *OrderCoordinator) buildLines(items []CartItem) ([]LineItem, []models.OrderItem, error) {
	if len(items) == 0 {
		return nil, nil, ErrEmptyCart
	}
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, nil, ErrInvalidQuantity
		}
		if it.AddOnPrice < 0 {
			return nil, nil, ErrInvalidAmount
		}
		ids = append(ids, it.ProductID)
	}
	products, err := c.products.GetByIDs(ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	lines := make([]LineItem, 0, len(items))
	rows := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, nil, gorm.ErrRecordNotFound
		}
		if !p.IsAvailable {
			return nil, nil, ErrProductUnavailable
		}
		lines = append(lines, LineItem{UnitPrice: p.Price, Quantity: it.Quantity, AddOnPrice: it.AddOnPrice})
		rows = append(rows, models.OrderItem{
			ProductID:  p.ID,
			Name:       p.Name,
			UnitPrice:  p.Price,
			Quantity:   it.Quantity,
			AddOnName:  it.AddOnName,
			AddOnPrice: it.AddOnPrice,
		})
	}
	return lines, rows, nil
}

// PriceOrder prices a cart without placing it. The promo code and wallet
// request are validated exactly as they will be at placement.
func (c *OrderCoordinator) PriceOrder(userID uint, items []CartItem, promoCode string, walletRequested int64) (PricingResult, error) {
	lines, _, err := c.buildLines(items)
	if err != nil {
		return PricingResult{}, err
	}
	var subtotal int64
	for _, l := range lines {
		subtotal += (l.UnitPrice + l.AddOnPrice) * int64(l.Quantity)
	}
	var promoDiscount int64
	if promoCode != "" {
		_, promoDiscount, err = c.promo.Quote(userID, promoCode, subtotal)
		if err != nil {
			return PricingResult{}, err
		}
	}
	balance, err := c.wallet.Balance(userID)
	if err != nil {
		return PricingResult{}, err
	}
	return c.calc.Price(PricingInput{
		Items:           lines,
		PromoDiscount:   promoDiscount,
		WalletRequested: walletRequested,
		WalletBalance:   balance,
	})
}

// PlaceOrderInput is the full placement request.
type PlaceOrderInput struct {
	Items           []CartItem
	PromoCode       string
	WalletRequested int64
	DeliverySlotID  *uint
	DeliveryAddress string
	Notes           string
}

// PlaceOrder prices the cart, books the slot, debits the wallet redemption and
// persists the order, then creates the scratch card. Pricing, slot booking,
// wallet debit and the order write are the only steps allowed to fail the
// operation; the scratch card and notifications are best-effort.
func (c *OrderCoordinator) PlaceOrder(userID uint, in PlaceOrderInput) (*models.Order, error) {
	lines, rows, err := c.buildLines(in.Items)
	if err != nil {
		return nil, err
	}
	var subtotal int64
	for _, l := range lines {
		subtotal += (l.UnitPrice + l.AddOnPrice) * int64(l.Quantity)
	}
	var promo *models.PromoCode
	var promoDiscount int64
	if in.PromoCode != "" {
		promo, promoDiscount, err = c.promo.Quote(userID, in.PromoCode, subtotal)
		if err != nil {
			return nil, err
		}
	}
	balance, err := c.wallet.Balance(userID)
	if err != nil {
		return nil, err
	}
	result, err := c.calc.Price(PricingInput{
		Items:           lines,
		PromoDiscount:   promoDiscount,
		WalletRequested: in.WalletRequested,
		WalletBalance:   balance,
	})
	if err != nil {
		return nil, err
	}

	if in.DeliverySlotID != nil {
		if err := c.slots.Book(*in.DeliverySlotID); err != nil {
			return nil, err
		}
	}
	releaseSlot := func() {
		if in.DeliverySlotID != nil {
			if err := c.slots.Release(*in.DeliverySlotID); err != nil {
				log.Printf("[order] release slot %d: %v", *in.DeliverySlotID, err)
			}
		}
	}

	order := &models.Order{
		UserID:             userID,
		Status:             domain.OrderStatusPending,
		Subtotal:           result.Subtotal,
		PromoDiscount:      result.PromoDiscount,
		SubtotalAfterPromo: result.SubtotalAfterPromo,
		DeliveryCharge:     result.DeliveryCharge,
		WalletUsed:         result.WalletUsed,
		Total:              result.Total,
		DeliverySlotID:     in.DeliverySlotID,
		DeliveryAddress:    in.DeliveryAddress,
		Notes:              in.Notes,
	}
	if promo != nil {
		order.PromoCode = promo.Code
	}
	if err := c.orders.Create(order, rows); err != nil {
		releaseSlot()
		return nil, err
	}

	if result.WalletUsed > 0 {
		desc := fmt.Sprintf("Wallet redemption on order #%d", order.ID)
		if err := c.wallet.Debit(userID, result.WalletUsed, domain.WalletTxOrderRedemption, &order.ID, desc); err != nil {
			if delErr := c.orders.Delete(order.ID); delErr != nil {
				log.Printf("[order] delete order %d after failed debit: %v", order.ID, delErr)
			}
			releaseSlot()
			return nil, err
		}
	}

	if promo != nil {
		if ok, err := c.promo.Consume(promo); err != nil || !ok {
			log.Printf("[order] consume promo %s for order %d: ok=%v err=%v", promo.Code, order.ID, ok, err)
		}
	}
	if _, err := c.scratch.CreateForOrder(order); err != nil {
		log.Printf("[order] create scratch card for order %d: %v", order.ID, err)
	}
	if c.notifier != nil {
		_ = c.notifier.Notify(userID, domain.NotifOrderStatus, "Order placed",
			fmt.Sprintf("Order #%d placed, total ₹%d", order.ID, order.Total),
			map[string]interface{}{"order_id": order.ID, "status": order.Status})
	}
	return order, nil
}

// canTransition enforces the monotonic status machine. Forward moves must
// strictly increase rank; cancellation is allowed from any non-terminal
// status.
func canTransition(from, to string) bool {
	if from == domain.OrderStatusDelivered || from == domain.OrderStatusCancelled {
		return false
	}
	if to == domain.OrderStatusCancelled {
		return true
	}
	fromRank, ok := domain.OrderStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := domain.OrderStatusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// TransitionStatus moves the order to newStatus and runs the delivery or
// cancellation side effects. A keyed mutex plus the conditional status UPDATE
// make repeated events for the same order (duplicate webhooks, client retries)
// converge to exactly one set of credits.
func (c *OrderCoordinator) TransitionStatus(orderID uint, newStatus string) (*models.Order, *SideEffectReport, error) {
	if _, ok := domain.OrderStatusRank[newStatus]; !ok && newStatus != domain.OrderStatusCancelled {
		return nil, nil, ErrInvalidTransition
	}

	unlock := c.locks.Lock(orderID)
	defer unlock()

	order, err := c.orders.GetByID(orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Status == newStatus {
		// Duplicate event: already there, nothing to do.
		return order, &SideEffectReport{OrderID: orderID}, nil
	}
	if !canTransition(order.Status, newStatus) {
		if order.Status == domain.OrderStatusDelivered || order.Status == domain.OrderStatusCancelled {
			return nil, nil, ErrOrderTerminal
		}
		return nil, nil, ErrInvalidTransition
	}
	won, err := c.orders.ClaimStatus(orderID, order.Status, newStatus)
	if err != nil {
		return nil, nil, err
	}
	if !won {
		// A concurrent event moved the order first; report the fresh state.
		fresh, err := c.orders.GetByID(orderID)
		if err != nil {
			return nil, nil, err
		}
		if fresh.Status == newStatus {
			return fresh, &SideEffectReport{OrderID: orderID}, nil
		}
		return nil, nil, ErrInvalidTransition
	}
	order.Status = newStatus

	report := &SideEffectReport{OrderID: orderID}
	switch newStatus {
	case domain.OrderStatusDelivered:
		c.runDeliveryEffects(order, report)
	case domain.OrderStatusCancelled:
		c.runCancellationEffects(order, report)
	}

	if c.notifier != nil {
		_ = c.notifier.Notify(order.UserID, domain.NotifOrderStatus, "Order update",
			fmt.Sprintf("Order #%d is now %s", order.ID, newStatus),
			map[string]interface{}{"order_id": order.ID, "status": newStatus})
	}
	if c.live != nil {
		c.live.BroadcastToUser(order.UserID, map[string]interface{}{
			"type":     "order_status",
			"order_id": order.ID,
			"status":   newStatus,
		})
	}
	return order, report, nil
}

// runDeliveryEffects credits the scratch card and, on the customer's first
// delivered order, completes the referral chain. Failures are reported, never
// propagated: the delivery itself already happened.
func (c *OrderCoordinator) runDeliveryEffects(order *models.Order, report *SideEffectReport) {
	if err := c.scratch.CreditForDelivered(order); err != nil {
		report.addf("scratch card credit: %v", err)
	}
	prior, err := c.orders.CountDelivered(order.UserID, order.ID)
	if err != nil {
		report.addf("count delivered orders: %v", err)
		return
	}
	if prior > 0 {
		return
	}
	if err := c.referrals.CompleteForFirstOrder(order.UserID, order.ID); err != nil {
		report.addf("referral completion: %v", err)
	}
}

// runCancellationEffects expires the scratch card, refunds any wallet
// redemption and releases the delivery slot.
func (c *OrderCoordinator) runCancellationEffects(order *models.Order, report *SideEffectReport) {
	if err := c.scratch.ExpireForOrder(order.ID); err != nil {
		report.addf("expire scratch card: %v", err)
	}
	if order.WalletUsed > 0 {
		desc := fmt.Sprintf("Refund of wallet redemption on cancelled order #%d", order.ID)
		if err := c.wallet.Credit(order.UserID, order.WalletUsed, domain.WalletTxOrderRedemption, &order.ID, desc); err != nil {
			report.addf("refund wallet redemption: %v", err)
		}
	}
	if order.DeliverySlotID != nil {
		if err := c.slots.Release(*order.DeliverySlotID); err != nil {
			report.addf("release delivery slot: %v", err)
		}
	}
}

// GetOrder loads an order with items.
func (c *OrderCoordinator) GetOrder(orderID uint) (*models.Order, error) {
	return c.orders.GetByID(orderID)
}

// OrdersForUser lists a customer's orders.
func (c *OrderCoordinator) OrdersForUser(userID uint, limit, offset int) ([]models.Order, error) {
	return c.orders.ListByUser(userID, limit, offset)
}
