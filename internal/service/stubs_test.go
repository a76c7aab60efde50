package service

import (
	"sync"

	"crumble/internal/domain"
	"crumble/internal/models"
	"crumble/internal/repository"

	"gorm.io/gorm"
)

// In-memory stores with the same claim semantics as the gorm repositories:
// conditional state flips under a mutex, so the concurrency tests exercise the
// real idempotency gates.

type memWalletStore struct {
	mu       sync.Mutex
	balances map[uint]int64
	txs      []models.WalletTransaction

	failCredit bool
}

func newMemWalletStore() *memWalletStore {
	return &memWalletStore{balances: make(map[uint]int64)}
}

func (s *memWalletStore) Balance(userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID], nil
}

func (s *memWalletStore) AtomicCredit(userID uint, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCredit {
		return gorm.ErrInvalidTransaction
	}
	s.balances[userID] += amount
	return nil
}

func (s *memWalletStore) AtomicDebit(userID uint, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[userID] < amount {
		return repository.ErrInsufficientBalance
	}
	s.balances[userID] -= amount
	return nil
}

func (s *memWalletStore) RecordTransaction(tx *models.WalletTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = uint(len(s.txs) + 1)
	s.txs = append(s.txs, *tx)
	return nil
}

func (s *memWalletStore) ListTransactions(userID uint, limit, offset int) ([]models.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WalletTransaction
	for _, tx := range s.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *memWalletStore) txsByCategory(category string) []models.WalletTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WalletTransaction
	for _, tx := range s.txs {
		if tx.Category == category {
			out = append(out, tx)
		}
	}
	return out
}

type memScratchStore struct {
	mu    sync.Mutex
	cards map[uint]*models.ScratchCard
	next  uint
}

func newMemScratchStore() *memScratchStore {
	return &memScratchStore{cards: make(map[uint]*models.ScratchCard)}
}

func (s *memScratchStore) Create(card *models.ScratchCard) (*models.ScratchCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cards {
		if c.OrderID == card.OrderID {
			cp := *c
			return &cp, nil
		}
	}
	s.next++
	card.ID = s.next
	cp := *card
	s.cards[card.ID] = &cp
	return card, nil
}

func (s *memScratchStore) GetByID(id uint) (*models.ScratchCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memScratchStore) GetByOrderID(orderID uint) (*models.ScratchCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cards {
		if c.OrderID == orderID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memScratchStore) ListByUser(userID uint, limit, offset int) ([]models.ScratchCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScratchCard
	for _, c := range s.cards {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memScratchStore) ClaimStatus(cardID uint, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[cardID]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (s *memScratchStore) ExpireForOrder(orderID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cards {
		if c.OrderID == orderID &&
			(c.Status == domain.ScratchStatusPending || c.Status == domain.ScratchStatusRevealed) {
			c.Status = domain.ScratchStatusExpired
		}
	}
	return nil
}

type memReferralStore struct {
	mu        sync.Mutex
	codes     map[uint]*models.ReferralCode
	referrals map[uint]*models.Referral
	next      uint
}

func newMemReferralStore() *memReferralStore {
	return &memReferralStore{
		codes:     make(map[uint]*models.ReferralCode),
		referrals: make(map[uint]*models.Referral),
	}
}

func (s *memReferralStore) addCode(userID uint, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[userID] = &models.ReferralCode{ID: userID, UserID: userID, Code: code, IsActive: true}
}

func (s *memReferralStore) GetOrCreateCode(userID uint) (*models.ReferralCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rc, ok := s.codes[userID]; ok {
		cp := *rc
		return &cp, nil
	}
	rc := &models.ReferralCode{ID: userID, UserID: userID, Code: "CODE", IsActive: true}
	s.codes[userID] = rc
	cp := *rc
	return &cp, nil
}

func (s *memReferralStore) GetByCode(code string) (*models.ReferralCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rc := range s.codes {
		if rc.Code == code && rc.IsActive {
			cp := *rc
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memReferralStore) CreateReferral(ref *models.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.referrals {
		if r.RefereeID == ref.RefereeID {
			return gorm.ErrDuplicatedKey
		}
	}
	s.next++
	ref.ID = s.next
	cp := *ref
	s.referrals[ref.ID] = &cp
	return nil
}

func (s *memReferralStore) GetByRefereeID(userID uint) (*models.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.referrals {
		if r.RefereeID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memReferralStore) ListByReferrerID(referrerID uint, limit, offset int) ([]models.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Referral
	for _, r := range s.referrals {
		if r.ReferrerID == referrerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memReferralStore) CountCompletedByReferrer(referrerID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, r := range s.referrals {
		if r.ReferrerID == referrerID && r.Status == domain.ReferralStatusCompleted {
			count++
		}
	}
	return count, nil
}

func (s *memReferralStore) ClaimComplete(referralID, firstOrderID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[referralID]
	if !ok || r.Status != domain.ReferralStatusPending {
		return false, nil
	}
	r.Status = domain.ReferralStatusCompleted
	r.FirstOrderID = &firstOrderID
	return true, nil
}

func (s *memReferralStore) ClaimReferrerCredited(referralID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[referralID]
	if !ok || r.ReferrerBonusCredited {
		return false, nil
	}
	r.ReferrerBonusCredited = true
	return true, nil
}

func (s *memReferralStore) ClaimRefereeCredited(referralID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[referralID]
	if !ok || r.RefereeBonusCredited {
		return false, nil
	}
	r.RefereeBonusCredited = true
	return true, nil
}

func (s *memReferralStore) RevertReferrerCredited(referralID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.referrals[referralID]; ok {
		r.ReferrerBonusCredited = false
	}
	return nil
}

func (s *memReferralStore) RevertRefereeCredited(referralID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.referrals[referralID]; ok {
		r.RefereeBonusCredited = false
	}
	return nil
}

type memMilestoneStore struct {
	mu     sync.Mutex
	awards []models.MilestoneAward
}

func (s *memMilestoneStore) CreateAward(a *models.MilestoneAward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.awards {
		if existing.UserID == a.UserID && existing.Level == a.Level {
			return repository.ErrAlreadyAwarded
		}
	}
	a.ID = uint(len(s.awards) + 1)
	s.awards = append(s.awards, *a)
	return nil
}

func (s *memMilestoneStore) DeleteAward(userID uint, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.awards[:0]
	for _, a := range s.awards {
		if a.UserID == userID && a.Level == level {
			continue
		}
		kept = append(kept, a)
	}
	s.awards = kept
	return nil
}

func (s *memMilestoneStore) ListByUser(userID uint) ([]models.MilestoneAward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MilestoneAward
	for _, a := range s.awards {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memOrderStore struct {
	mu     sync.Mutex
	orders map[uint]*models.Order
	next   uint
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[uint]*models.Order)}
}

func (s *memOrderStore) Create(order *models.Order, items []models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	order.ID = s.next
	for i := range items {
		items[i].OrderID = order.ID
	}
	order.Items = items
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *memOrderStore) Delete(orderID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, orderID)
	return nil
}

func (s *memOrderStore) GetByID(id uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memOrderStore) ListByUser(userID uint, limit, offset int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memOrderStore) ClaimStatus(orderID uint, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (s *memOrderStore) CountDelivered(userID uint, excludeOrderID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, o := range s.orders {
		if o.UserID == userID && o.Status == domain.OrderStatusDelivered && o.ID != excludeOrderID {
			count++
		}
	}
	return count, nil
}

type memProductStore struct {
	products []models.Product
}

func (s *memProductStore) GetByIDs(ids []uint) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.products {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

type memSlotBooker struct {
	mu       sync.Mutex
	capacity map[uint]int
	booked   map[uint]int
}

func newMemSlotBooker() *memSlotBooker {
	return &memSlotBooker{capacity: make(map[uint]int), booked: make(map[uint]int)}
}

func (s *memSlotBooker) Book(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.booked[id] >= s.capacity[id] {
		return repository.ErrSlotFull
	}
	s.booked[id]++
	return nil
}

func (s *memSlotBooker) Release(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.booked[id] > 0 {
		s.booked[id]--
	}
	return nil
}

type memPromoStore struct {
	mu     sync.Mutex
	promos map[string]*models.PromoCode
}

func (s *memPromoStore) GetActiveByCode(code string) (*models.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[code]
	if !ok || !p.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memPromoStore) IncrementUsage(id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.promos {
		if p.ID == id {
			if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
				return false, nil
			}
			p.UsedCount++
			return true, nil
		}
	}
	return false, nil
}

type memPromoUsage struct {
	counts map[uint]map[string]int64
}

func (s *memPromoUsage) CountWithPromo(userID uint, code string) (int64, error) {
	if s.counts == nil {
		return 0, nil
	}
	return s.counts[userID][code], nil
}

type stubUsers struct {
	users map[uint]*models.User
}

func (s *stubUsers) GetByID(id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

type notifyCall struct {
	UserID uint
	Type   string
}

type stubNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (s *stubNotifier) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, notifyCall{UserID: userID, Type: notifType})
	return nil
}

type stubEmail struct {
	mu        sync.Mutex
	referral  int
	milestone int
}

func (s *stubEmail) SendReferralEmail(toEmail, referrerName, code, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referral++
	return nil
}

func (s *stubEmail) SendMilestoneEmail(toEmail, name, milestoneLabel string, bonus int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestone++
	return nil
}
