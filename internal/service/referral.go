package service

import (
	"errors"
	"fmt"
	"log"

	"crumble/config"
	"crumble/internal/domain"
	"crumble/internal/models"

	"gorm.io/gorm"
)

// ReferralStore is the persistence contract for referral codes and referrals.
// The Claim* methods are conditional UPDATEs that report whether this caller
// won the flip.
type ReferralStore interface {
	GetOrCreateCode(userID uint) (*models.ReferralCode, error)
	GetByCode(code string) (*models.ReferralCode, error)
	CreateReferral(referral *models.Referral) error
	GetByRefereeID(userID uint) (*models.Referral, error)
	ListByReferrerID(referrerID uint, limit, offset int) ([]models.Referral, error)
	CountCompletedByReferrer(referrerID uint) (int64, error)
	ClaimComplete(referralID, firstOrderID uint) (bool, error)
	ClaimReferrerCredited(referralID uint) (bool, error)
	ClaimRefereeCredited(referralID uint) (bool, error)
	RevertReferrerCredited(referralID uint) error
	RevertRefereeCredited(referralID uint) error
}

// UserGetter loads users for display names and email addresses.
type UserGetter interface {
	GetByID(id uint) (*models.User, error)
}

// ReferralEngine creates referrals at signup and pays both sides exactly once
// when the referee's first order is delivered.
type ReferralEngine struct {
	store      ReferralStore
	users      UserGetter
	wallet     *WalletLedger
	milestones *MilestoneEngine // may be nil
	notifier   Notifier         // may be nil
	email      EmailSender      // may be nil
	cfg        config.IncentiveConfig
	linkBase   string
}

func NewReferralEngine(
	store ReferralStore,
	users UserGetter,
	wallet *WalletLedger,
	milestones *MilestoneEngine,
	notifier Notifier,
	email EmailSender,
	cfg config.IncentiveConfig,
	linkBase string,
) *ReferralEngine {
	return &ReferralEngine{
		store:      store,
		users:      users,
		wallet:     wallet,
		milestones: milestones,
		notifier:   notifier,
		email:      email,
		cfg:        cfg,
		linkBase:   linkBase,
	}
}

// CodeFor returns the user's referral code, creating one on first use.
func (e *ReferralEngine) CodeFor(userID uint) (*models.ReferralCode, error) {
	return e.store.GetOrCreateCode(userID)
}

// ValidateCode resolves a referral code to its owner.
func (e *ReferralEngine) ValidateCode(code string) (*models.User, error) {
	rc, err := e.store.GetByCode(code)
	if err != nil {
		return nil, ErrInvalidCode
	}
	return e.users.GetByID(rc.UserID)
}

// CreateReferral records that refereeID signed up with the given code. A user
// can be referred only once and never by themselves.
func (e *ReferralEngine) CreateReferral(refereeID uint, code string) (*models.Referral, error) {
	rc, err := e.store.GetByCode(code)
	if err != nil {
		return nil, ErrInvalidCode
	}
	if rc.UserID == refereeID {
		return nil, ErrSelfReferral
	}
	if _, err := e.store.GetByRefereeID(refereeID); err == nil {
		return nil, ErrAlreadyReferred
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	ref := &models.Referral{
		ReferrerID:    rc.UserID,
		RefereeID:     refereeID,
		ReferralCode:  rc.Code,
		Status:        domain.ReferralStatusPending,
		ReferrerBonus: e.cfg.ReferrerBonus,
		RefereeBonus:  e.cfg.RefereeBonus,
	}
	if err := e.store.CreateReferral(ref); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyReferred
		}
		return nil, err
	}
	e.sendWelcomeEmail(ref)
	return ref, nil
}

func (e *ReferralEngine) sendWelcomeEmail(ref *models.Referral) {
	if e.email == nil {
		return
	}
	referee, err := e.users.GetByID(ref.RefereeID)
	if err != nil {
		return
	}
	referrer, err := e.users.GetByID(ref.ReferrerID)
	if err != nil {
		return
	}
	link := fmt.Sprintf("%s/%s", e.linkBase, ref.ReferralCode)
	if err := e.email.SendReferralEmail(referee.Email, referrer.Name, ref.ReferralCode, link); err != nil {
		log.Printf("[referral] send referral email to %s: %v", referee.Email, err)
	}
}

// CompleteForFirstOrder is called by the order coordinator when orderID is the
// customer's first ever delivered order. It completes a pending referral where
// the customer is the referee and credits both sides, each gated by its own
// credited flag so duplicate delivery events cannot double-pay.
func (e *ReferralEngine) CompleteForFirstOrder(customerID, orderID uint) error {
	ref, err := e.store.GetByRefereeID(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // customer was not referred
		}
		return err
	}

	completedNow, err := e.store.ClaimComplete(ref.ID, orderID)
	if err != nil {
		return err
	}
	if !completedNow && ref.Status != domain.ReferralStatusCompleted {
		// Lost the race to a concurrent event for the same order; the winner
		// proceeds with crediting and the flags below stay safe regardless.
		log.Printf("[referral] referral %d completed by concurrent event", ref.ID)
	}

	var firstErr error
	if won, err := e.store.ClaimReferrerCredited(ref.ID); err != nil {
		firstErr = err
	} else if won {
		desc := fmt.Sprintf("Referral bonus: friend's first order #%d delivered", orderID)
		if err := e.wallet.Credit(ref.ReferrerID, ref.ReferrerBonus, domain.WalletTxReferralBonus, &orderID, desc); err != nil {
			log.Printf("[referral] credit referrer %d for referral %d: %v", ref.ReferrerID, ref.ID, err)
			// Give the claim back so a retried delivery event can pay.
			if revertErr := e.store.RevertReferrerCredited(ref.ID); revertErr != nil {
				log.Printf("[referral] revert referrer credited flag for referral %d: %v", ref.ID, revertErr)
			}
			firstErr = err
		} else {
			if e.notifier != nil {
				_ = e.notifier.Notify(ref.ReferrerID, domain.NotifReferralCompleted, "Referral bonus earned",
					fmt.Sprintf("₹%d credited for referring a friend", ref.ReferrerBonus),
					map[string]interface{}{"referral_id": ref.ID, "amount": ref.ReferrerBonus})
			}
			if e.milestones != nil {
				if err := e.milestones.Check(ref.ReferrerID); err != nil {
					log.Printf("[referral] milestone check for referrer %d: %v", ref.ReferrerID, err)
				}
			}
		}
	}

	if won, err := e.store.ClaimRefereeCredited(ref.ID); err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else if won {
		desc := fmt.Sprintf("Referral welcome bonus: first order #%d delivered", orderID)
		if err := e.wallet.Credit(ref.RefereeID, ref.RefereeBonus, domain.WalletTxReferralBonus, &orderID, desc); err != nil {
			log.Printf("[referral] credit referee %d for referral %d: %v", ref.RefereeID, ref.ID, err)
			if revertErr := e.store.RevertRefereeCredited(ref.ID); revertErr != nil {
				log.Printf("[referral] revert referee credited flag for referral %d: %v", ref.ID, revertErr)
			}
			if firstErr == nil {
				firstErr = err
			}
		} else if e.notifier != nil {
			_ = e.notifier.Notify(ref.RefereeID, domain.NotifReferralCompleted, "Referral bonus earned",
				fmt.Sprintf("₹%d credited for your first delivered order", ref.RefereeBonus),
				map[string]interface{}{"referral_id": ref.ID, "amount": ref.RefereeBonus})
		}
	}
	return firstErr
}

// ListForReferrer returns the referrals a user has made.
func (e *ReferralEngine) ListForReferrer(referrerID uint, limit, offset int) ([]models.Referral, error) {
	return e.store.ListByReferrerID(referrerID, limit, offset)
}

// Stats returns the completed-referral count and the derived display tier.
func (e *ReferralEngine) Stats(referrerID uint) (int64, domain.Tier, error) {
	count, err := e.store.CountCompletedByReferrer(referrerID)
	if err != nil {
		return 0, domain.Tier{}, err
	}
	return count, domain.TierFor(int(count)), nil
}
