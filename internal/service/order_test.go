package service

import (
	"sync"
	"testing"

	"crumble/internal/domain"
	"crumble/internal/models"
	"crumble/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubBroadcaster struct {
	mu       sync.Mutex
	payloads []interface{}
}

func (s *stubBroadcaster) BroadcastToUser(userID uint, payload interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
}

type orderFixture struct {
	coord     *OrderCoordinator
	orders    *memOrderStore
	products  *memProductStore
	slots     *memSlotBooker
	promos    *memPromoStore
	scratches *memScratchStore
	referrals *memReferralStore
	wallets   *memWalletStore
	notifier  *stubNotifier
	live      *stubBroadcaster
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	cfg := testIncentiveConfig()

	orders := newMemOrderStore()
	products := &memProductStore{products: []models.Product{
		{ID: 1, Name: "Chocolate Truffle Cake", Price: 450, IsAvailable: true},
		{ID: 2, Name: "Red Velvet Pastry", Price: 60, IsAvailable: true},
		{ID: 3, Name: "Seasonal Special", Price: 700, IsAvailable: false},
	}}
	slots := newMemSlotBooker()
	slots.capacity[1] = 1
	promos := &memPromoStore{promos: map[string]*models.PromoCode{
		"SWEET20": {ID: 1, Code: "SWEET20", Type: domain.PromoTypeFlat, Value: 20, IsActive: true},
	}}
	scratches := newMemScratchStore()
	referrals := newMemReferralStore()
	wallets := newMemWalletStore()
	notifier := &stubNotifier{}
	live := &stubBroadcaster{}

	users := &stubUsers{users: map[uint]*models.User{
		1: {ID: 1, Email: "meera@example.com", Name: "Meera"},
		2: {ID: 2, Email: "arjun@example.com", Name: "Arjun"},
	}}
	ledger := NewWalletLedger(wallets)
	milestones := NewMilestoneEngine(&memMilestoneStore{}, referrals, users, ledger, notifier, nil)
	scratchEngine := NewScratchCardEngine(scratches, ledger, notifier, cfg)
	referralEngine := NewReferralEngine(referrals, users, ledger, milestones, notifier, nil, cfg, "https://crumble.example.com/r")
	promoService := NewPromoService(promos, &memPromoUsage{})

	coord := NewOrderCoordinator(
		orders, products, slots, promoService, ledger,
		NewPricingCalculator(cfg), scratchEngine, referralEngine,
		notifier, live,
	)
	return &orderFixture{
		coord:     coord,
		orders:    orders,
		products:  products,
		slots:     slots,
		promos:    promos,
		scratches: scratches,
		referrals: referrals,
		wallets:   wallets,
		notifier:  notifier,
		live:      live,
	}
}

func (f *orderFixture) mustPlace(t *testing.T, userID uint, in PlaceOrderInput) *models.Order {
	t.Helper()
	order, err := f.coord.PlaceOrder(userID, in)
	require.NoError(t, err)
	return order
}

func (f *orderFixture) mustTransition(t *testing.T, orderID uint, statuses ...string) *models.Order {
	t.Helper()
	var order *models.Order
	for _, s := range statuses {
		var err error
		order, _, err = f.coord.TransitionStatus(orderID, s)
		require.NoError(t, err)
	}
	return order
}

func TestPlaceOrderPersistsPricingBreakdown(t *testing.T) {
	f := newOrderFixture(t)

	order := f.mustPlace(t, 2, PlaceOrderInput{
		Items:     []CartItem{{ProductID: 1, Quantity: 1}},
		PromoCode: "SWEET20",
	})
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, int64(450), order.Subtotal)
	assert.Equal(t, "SWEET20", order.PromoCode)
	assert.Equal(t, int64(20), order.PromoDiscount)
	assert.Equal(t, int64(430), order.SubtotalAfterPromo)
	assert.Equal(t, int64(50), order.DeliveryCharge)
	assert.Equal(t, int64(480), order.Total)

	// Item prices are frozen at placement.
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Chocolate Truffle Cake", order.Items[0].Name)
	assert.Equal(t, int64(450), order.Items[0].UnitPrice)

	// Exactly one scratch card exists for the order.
	card, err := f.scratches.GetByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScratchStatusPending, card.Status)
}

func TestPlaceOrderDebitsWalletRedemption(t *testing.T) {
	f := newOrderFixture(t)
	require.NoError(t, NewWalletLedger(f.wallets).Credit(2, 200, domain.WalletTxWelcomeBonus, nil, ""))

	order := f.mustPlace(t, 2, PlaceOrderInput{
		Items:           []CartItem{{ProductID: 1, Quantity: 2}}, // 900, free delivery
		WalletRequested: 80,
	})
	assert.Equal(t, int64(80), order.WalletUsed)
	assert.Equal(t, int64(820), order.Total)

	balance, _ := f.wallets.Balance(2)
	assert.Equal(t, int64(120), balance)
	debits := f.wallets.txsByCategory(domain.WalletTxOrderRedemption)
	require.Len(t, debits, 1)
	assert.Equal(t, domain.WalletTxDirectionDebit, debits[0].Direction)
}

func TestPlaceOrderWalletCapRejected(t *testing.T) {
	f := newOrderFixture(t)
	require.NoError(t, NewWalletLedger(f.wallets).Credit(2, 500, domain.WalletTxWelcomeBonus, nil, ""))

	_, err := f.coord.PlaceOrder(2, PlaceOrderInput{
		Items:           []CartItem{{ProductID: 2, Quantity: 1}}, // 60 + 50 delivery
		WalletRequested: 50,
	})
	var capErr *WalletCapError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, int64(11), capErr.Cap) // 10% of 110
}

func TestPlaceOrderUnavailableProduct(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.coord.PlaceOrder(2, PlaceOrderInput{
		Items: []CartItem{{ProductID: 3, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrProductUnavailable)

	_, err = f.coord.PlaceOrder(2, PlaceOrderInput{
		Items: []CartItem{{ProductID: 99, Quantity: 1}},
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPlaceOrderSlotBooking(t *testing.T) {
	f := newOrderFixture(t)
	slotID := uint(1)

	f.mustPlace(t, 2, PlaceOrderInput{
		Items:          []CartItem{{ProductID: 1, Quantity: 1}},
		DeliverySlotID: &slotID,
	})
	// Capacity 1 is now exhausted.
	_, err := f.coord.PlaceOrder(2, PlaceOrderInput{
		Items:          []CartItem{{ProductID: 1, Quantity: 1}},
		DeliverySlotID: &slotID,
	})
	assert.ErrorIs(t, err, repository.ErrSlotFull)
}

func TestTransitionStatusForwardOnly(t *testing.T) {
	f := newOrderFixture(t)
	order := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 1}}})

	f.mustTransition(t, order.ID, domain.OrderStatusConfirmed, domain.OrderStatusPreparing)

	// Backward move is rejected.
	_, _, err := f.coord.TransitionStatus(order.ID, domain.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Skipping forward is allowed.
	updated, _, err := f.coord.TransitionStatus(order.ID, domain.OrderStatusOutForDelivery)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusOutForDelivery, updated.Status)
}

func TestTransitionStatusUnknownStatus(t *testing.T) {
	f := newOrderFixture(t)
	order := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 1}}})

	_, _, err := f.coord.TransitionStatus(order.ID, "SHIPPED")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionStatusDuplicateEventIsNoop(t *testing.T) {
	f := newOrderFixture(t)
	order := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 1}}})
	f.mustTransition(t, order.ID, domain.OrderStatusConfirmed)

	updated, report, err := f.coord.TransitionStatus(order.ID, domain.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, updated.Status)
	assert.False(t, report.Failed())
}

func TestTransitionStatusTerminalOrders(t *testing.T) {
	f := newOrderFixture(t)
	order := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 1}}})
	f.mustTransition(t, order.ID, domain.OrderStatusDelivered)

	_, _, err := f.coord.TransitionStatus(order.ID, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrOrderTerminal)

	cancelled := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 1}}})
	f.mustTransition(t, cancelled.ID, domain.OrderStatusCancelled)
	_, _, err = f.coord.TransitionStatus(cancelled.ID, domain.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrOrderTerminal)
}

func TestDeliveryCreditsScratchCard(t *testing.T) {
	f := newOrderFixture(t)
	order := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 2}}})

	_, report, err := f.coord.TransitionStatus(order.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.False(t, report.Failed())

	card, err := f.scratches.GetByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScratchStatusCredited, card.Status)
	balance, _ := f.wallets.Balance(2)
	assert.Equal(t, card.Amount, balance)
}

func TestFirstDeliveryCompletesReferral(t *testing.T) {
	f := newOrderFixture(t)
	f.referrals.addCode(1, "MEERA123")
	require.NoError(t, f.referrals.CreateReferral(&models.Referral{
		ReferrerID:    1,
		RefereeID:     2,
		ReferralCode:  "MEERA123",
		Status:        domain.ReferralStatusPending,
		ReferrerBonus: 50,
		RefereeBonus:  25,
	}))

	order := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 2}}})
	f.mustTransition(t, order.ID, domain.OrderStatusDelivered)

	ref, err := f.referrals.GetByRefereeID(2)
	require.NoError(t, err)
	assert.Equal(t, domain.ReferralStatusCompleted, ref.Status)
	assert.True(t, ref.ReferrerBonusCredited)
	assert.True(t, ref.RefereeBonusCredited)
	assert.Len(t, f.wallets.txsByCategory(domain.WalletTxReferralBonus), 2)
}

func TestSecondDeliveryDoesNotRecompleteReferral(t *testing.T) {
	f := newOrderFixture(t)
	f.referrals.addCode(1, "MEERA123")
	require.NoError(t, f.referrals.CreateReferral(&models.Referral{
		ReferrerID:    1,
		RefereeID:     2,
		ReferralCode:  "MEERA123",
		Status:        domain.ReferralStatusPending,
		ReferrerBonus: 50,
		RefereeBonus:  25,
	}))

	first := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 2}}})
	f.mustTransition(t, first.ID, domain.OrderStatusDelivered)
	second := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 2}}})
	f.mustTransition(t, second.ID, domain.OrderStatusDelivered)

	assert.Len(t, f.wallets.txsByCategory(domain.WalletTxReferralBonus), 2)
}

func TestConcurrentDeliveryEventsCreditOnce(t *testing.T) {
	f := newOrderFixture(t)
	order := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 2}}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = f.coord.TransitionStatus(order.ID, domain.OrderStatusDelivered)
		}()
	}
	wg.Wait()

	card, err := f.scratches.GetByOrderID(order.ID)
	require.NoError(t, err)
	assert.Len(t, f.wallets.txsByCategory(domain.WalletTxOrderCashback), 1)
	balance, _ := f.wallets.Balance(2)
	assert.Equal(t, card.Amount, balance)
}

func TestCancellationRefundsAndExpires(t *testing.T) {
	f := newOrderFixture(t)
	require.NoError(t, NewWalletLedger(f.wallets).Credit(2, 500, domain.WalletTxWelcomeBonus, nil, ""))
	slotID := uint(1)

	order := f.mustPlace(t, 2, PlaceOrderInput{
		Items:           []CartItem{{ProductID: 1, Quantity: 2}},
		WalletRequested: 80,
		DeliverySlotID:  &slotID,
	})
	balanceAfterPlace, _ := f.wallets.Balance(2)
	assert.Equal(t, int64(420), balanceAfterPlace)

	_, report, err := f.coord.TransitionStatus(order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, report.Failed())

	// Redemption refunded, card expired, slot capacity released.
	balance, _ := f.wallets.Balance(2)
	assert.Equal(t, int64(500), balance)
	card, _ := f.scratches.GetByOrderID(order.ID)
	assert.Equal(t, domain.ScratchStatusExpired, card.Status)
	assert.Equal(t, 0, f.slots.booked[1])
}

func TestCancelledOrderNeverCredits(t *testing.T) {
	f := newOrderFixture(t)
	order := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 2}}})
	f.mustTransition(t, order.ID, domain.OrderStatusCancelled)

	_, _, err := f.coord.TransitionStatus(order.ID, domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrOrderTerminal)
	assert.Empty(t, f.wallets.txsByCategory(domain.WalletTxOrderCashback))
}

func TestDeliveryBroadcastsLiveUpdate(t *testing.T) {
	f := newOrderFixture(t)
	order := f.mustPlace(t, 2, PlaceOrderInput{Items: []CartItem{{ProductID: 1, Quantity: 1}}})

	f.mustTransition(t, order.ID, domain.OrderStatusConfirmed)
	assert.NotEmpty(t, f.live.payloads)
}
