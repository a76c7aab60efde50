package service

import (
	"errors"
	"fmt"
	"log"

	"crumble/internal/domain"
	"crumble/internal/models"
	"crumble/internal/repository"
)

// MilestoneStore persists milestone awards. CreateAward must fail with
// repository.ErrAlreadyAwarded on a duplicate (user, level) pair; that
// uniqueness is the only idempotency memory the engine has.
type MilestoneStore interface {
	CreateAward(award *models.MilestoneAward) error
	DeleteAward(userID uint, level int) error
	ListByUser(userID uint) ([]models.MilestoneAward, error)
}

// CompletedReferralCounter is the slice of the referral store the milestone
// engine needs.
type CompletedReferralCounter interface {
	CountCompletedByReferrer(referrerID uint) (int64, error)
}

// MilestoneEngine pays graduated one-time bonuses as a referrer's
// completed-referral count crosses the fixed thresholds in domain.Milestones.
type MilestoneEngine struct {
	store     MilestoneStore
	referrals CompletedReferralCounter
	users     UserGetter
	wallet    *WalletLedger
	notifier  Notifier    // may be nil
	email     EmailSender // may be nil
}

func NewMilestoneEngine(
	store MilestoneStore,
	referrals CompletedReferralCounter,
	users UserGetter,
	wallet *WalletLedger,
	notifier Notifier,
	email EmailSender,
) *MilestoneEngine {
	return &MilestoneEngine{
		store:     store,
		referrals: referrals,
		users:     users,
		wallet:    wallet,
		notifier:  notifier,
		email:     email,
	}
}

// Check awards every reached-but-unawarded milestone for the referrer. Safe to
// run any number of times: the award row's uniqueness makes each level pay at
// most once.
func (e *MilestoneEngine) Check(referrerID uint) error {
	count, err := e.referrals.CountCompletedByReferrer(referrerID)
	if err != nil {
		return err
	}
	var firstErr error
	for _, m := range domain.Milestones {
		if int64(m.Referrals) > count {
			break
		}
		award := &models.MilestoneAward{
			UserID: referrerID,
			Level:  m.Level,
			Label:  m.Label,
			Bonus:  m.Bonus,
		}
		if err := e.store.CreateAward(award); err != nil {
			if errors.Is(err, repository.ErrAlreadyAwarded) {
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		desc := fmt.Sprintf("%s milestone bonus (%d referrals)", m.Label, m.Referrals)
		if err := e.wallet.Credit(referrerID, m.Bonus, domain.WalletTxMilestone, nil, desc); err != nil {
			log.Printf("[milestone] credit level %d for user %d: %v", m.Level, referrerID, err)
			// Release the gate so a later check can pay the level.
			if delErr := e.store.DeleteAward(referrerID, m.Level); delErr != nil {
				log.Printf("[milestone] delete unpaid award level %d for user %d: %v", m.Level, referrerID, delErr)
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		e.announce(referrerID, m)
	}
	return firstErr
}

func (e *MilestoneEngine) announce(referrerID uint, m domain.Milestone) {
	if e.notifier != nil {
		_ = e.notifier.Notify(referrerID, domain.NotifMilestoneReached, "Milestone reached!",
			fmt.Sprintf("You unlocked %s: ₹%d bonus for %d referrals", m.Label, m.Bonus, m.Referrals),
			map[string]interface{}{"level": m.Level, "amount": m.Bonus})
	}
	if e.email == nil {
		return
	}
	u, err := e.users.GetByID(referrerID)
	if err != nil {
		return
	}
	if err := e.email.SendMilestoneEmail(u.Email, u.Name, m.Label, m.Bonus); err != nil {
		log.Printf("[milestone] send milestone email to %s: %v", u.Email, err)
	}
}

// Awards lists the milestones a user has already earned.
func (e *MilestoneEngine) Awards(userID uint) ([]models.MilestoneAward, error) {
	return e.store.ListByUser(userID)
}
