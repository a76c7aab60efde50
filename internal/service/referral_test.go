package service

import (
	"sync"
	"testing"

	"crumble/internal/domain"
	"crumble/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type referralFixture struct {
	engine     *ReferralEngine
	milestones *MilestoneEngine
	store      *memReferralStore
	awards     *memMilestoneStore
	wallets    *memWalletStore
	notifier   *stubNotifier
	email      *stubEmail
}

func newReferralFixture(t *testing.T) *referralFixture {
	t.Helper()
	store := newMemReferralStore()
	awards := &memMilestoneStore{}
	wallets := newMemWalletStore()
	notifier := &stubNotifier{}
	email := &stubEmail{}
	users := &stubUsers{users: map[uint]*models.User{
		1: {ID: 1, Email: "meera@example.com", Name: "Meera"},
		2: {ID: 2, Email: "arjun@example.com", Name: "Arjun"},
	}}
	ledger := NewWalletLedger(wallets)
	milestones := NewMilestoneEngine(awards, store, users, ledger, notifier, email)
	engine := NewReferralEngine(store, users, ledger, milestones, notifier, email,
		testIncentiveConfig(), "https://crumble.example.com/r")
	return &referralFixture{
		engine:     engine,
		milestones: milestones,
		store:      store,
		awards:     awards,
		wallets:    wallets,
		notifier:   notifier,
		email:      email,
	}
}

func TestReferralValidateCode(t *testing.T) {
	f := newReferralFixture(t)
	f.store.addCode(1, "MEERA123")

	owner, err := f.engine.ValidateCode("MEERA123")
	require.NoError(t, err)
	assert.Equal(t, uint(1), owner.ID)

	_, err = f.engine.ValidateCode("NOPE")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestReferralCreate(t *testing.T) {
	f := newReferralFixture(t)
	f.store.addCode(1, "MEERA123")

	ref, err := f.engine.CreateReferral(2, "MEERA123")
	require.NoError(t, err)
	assert.Equal(t, uint(1), ref.ReferrerID)
	assert.Equal(t, uint(2), ref.RefereeID)
	assert.Equal(t, domain.ReferralStatusPending, ref.Status)
	assert.Equal(t, int64(50), ref.ReferrerBonus)
	assert.Equal(t, int64(25), ref.RefereeBonus)
	assert.Equal(t, 1, f.email.referral)
}

func TestReferralSelfReferralRejected(t *testing.T) {
	f := newReferralFixture(t)
	f.store.addCode(1, "MEERA123")

	_, err := f.engine.CreateReferral(1, "MEERA123")
	assert.ErrorIs(t, err, ErrSelfReferral)
}

func TestReferralSecondReferralRejected(t *testing.T) {
	f := newReferralFixture(t)
	f.store.addCode(1, "MEERA123")
	f.store.addCode(2, "ARJUN456")

	_, err := f.engine.CreateReferral(2, "MEERA123")
	require.NoError(t, err)

	_, err = f.engine.CreateReferral(2, "MEERA123")
	assert.ErrorIs(t, err, ErrAlreadyReferred)
}

func TestReferralCompleteForFirstOrderCreditsBothSides(t *testing.T) {
	f := newReferralFixture(t)
	f.store.addCode(1, "MEERA123")
	_, err := f.engine.CreateReferral(2, "MEERA123")
	require.NoError(t, err)

	require.NoError(t, f.engine.CompleteForFirstOrder(2, 77))

	referrerBalance, _ := f.wallets.Balance(1)
	refereeBalance, _ := f.wallets.Balance(2)
	// Referrer got the 50 bonus plus the level-1 milestone bonus of 50.
	assert.Equal(t, int64(100), referrerBalance)
	assert.Equal(t, int64(25), refereeBalance)

	ref, err := f.store.GetByRefereeID(2)
	require.NoError(t, err)
	assert.Equal(t, domain.ReferralStatusCompleted, ref.Status)
	assert.True(t, ref.ReferrerBonusCredited)
	assert.True(t, ref.RefereeBonusCredited)
	require.NotNil(t, ref.FirstOrderID)
	assert.Equal(t, uint(77), *ref.FirstOrderID)
}

func TestReferralCompleteForFirstOrderIsIdempotent(t *testing.T) {
	f := newReferralFixture(t)
	f.store.addCode(1, "MEERA123")
	_, err := f.engine.CreateReferral(2, "MEERA123")
	require.NoError(t, err)

	require.NoError(t, f.engine.CompleteForFirstOrder(2, 77))
	require.NoError(t, f.engine.CompleteForFirstOrder(2, 77))
	require.NoError(t, f.engine.CompleteForFirstOrder(2, 77))

	assert.Len(t, f.wallets.txsByCategory(domain.WalletTxReferralBonus), 2)
	referrerBalance, _ := f.wallets.Balance(1)
	assert.Equal(t, int64(100), referrerBalance)
}

func TestReferralCompleteRetriesAfterWalletFailure(t *testing.T) {
	f := newReferralFixture(t)
	f.store.addCode(1, "MEERA123")
	_, err := f.engine.CreateReferral(2, "MEERA123")
	require.NoError(t, err)

	f.wallets.failCredit = true
	require.Error(t, f.engine.CompleteForFirstOrder(2, 77))

	// Unpaid claims are given back, so a retried delivery event pays both sides.
	ref, err := f.store.GetByRefereeID(2)
	require.NoError(t, err)
	assert.False(t, ref.ReferrerBonusCredited)
	assert.False(t, ref.RefereeBonusCredited)

	f.wallets.failCredit = false
	require.NoError(t, f.engine.CompleteForFirstOrder(2, 77))

	assert.Len(t, f.wallets.txsByCategory(domain.WalletTxReferralBonus), 2)
	referrerBalance, _ := f.wallets.Balance(1)
	refereeBalance, _ := f.wallets.Balance(2)
	assert.Equal(t, int64(100), referrerBalance)
	assert.Equal(t, int64(25), refereeBalance)
}

func TestReferralCompleteConcurrentEventsCreditOnce(t *testing.T) {
	f := newReferralFixture(t)
	f.store.addCode(1, "MEERA123")
	_, err := f.engine.CreateReferral(2, "MEERA123")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.engine.CompleteForFirstOrder(2, 77)
		}()
	}
	wg.Wait()

	assert.Len(t, f.wallets.txsByCategory(domain.WalletTxReferralBonus), 2)
}

func TestReferralCompleteForUnreferredCustomerIsNoop(t *testing.T) {
	f := newReferralFixture(t)

	require.NoError(t, f.engine.CompleteForFirstOrder(2, 77))
	balance, _ := f.wallets.Balance(2)
	assert.Equal(t, int64(0), balance)
}

func TestReferralStatsTier(t *testing.T) {
	f := newReferralFixture(t)
	f.store.addCode(1, "MEERA123")

	count, tier, err := f.engine.Stats(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, "Bronze", tier.Name)

	for i := uint(0); i < 5; i++ {
		f.store.referrals[100+i] = &models.Referral{
			ID:         100 + i,
			ReferrerID: 1,
			RefereeID:  200 + i,
			Status:     domain.ReferralStatusCompleted,
		}
	}
	count, tier, err = f.engine.Stats(1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
	assert.Equal(t, "Silver", tier.Name)
}
