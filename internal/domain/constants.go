package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Order statuses. Transitions are forward-only except cancellation;
// DELIVERED and CANCELLED are terminal.
const (
	OrderStatusPending        = "PENDING"
	OrderStatusConfirmed      = "CONFIRMED"
	OrderStatusPreparing      = "PREPARING"
	OrderStatusReady          = "READY"
	OrderStatusOutForDelivery = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      = "DELIVERED"
	OrderStatusCancelled      = "CANCELLED"
)

// OrderStatusRank orders the forward statuses for transition checks.
// CANCELLED is handled separately.
var OrderStatusRank = map[string]int{
	OrderStatusPending:        0,
	OrderStatusConfirmed:      1,
	OrderStatusPreparing:      2,
	OrderStatusReady:          3,
	OrderStatusOutForDelivery: 4,
	OrderStatusDelivered:      5,
}

// Wallet transaction categories.
const (
	WalletTxWelcomeBonus    = "WELCOME_BONUS"
	WalletTxOrderCashback   = "ORDER_CASHBACK"
	WalletTxReferralBonus   = "REFERRAL_BONUS"
	WalletTxOrderRedemption = "ORDER_REDEMPTION"
	WalletTxMilestone       = "MILESTONE"
)

const (
	WalletTxDirectionCredit = "CREDIT"
	WalletTxDirectionDebit  = "DEBIT"
)

// Scratch card statuses.
const (
	ScratchStatusPending  = "PENDING"
	ScratchStatusRevealed = "REVEALED"
	ScratchStatusCredited = "CREDITED"
	ScratchStatusExpired  = "EXPIRED"
)

// Referral statuses.
const (
	ReferralStatusPending   = "PENDING"
	ReferralStatusCompleted = "COMPLETED"
)

// Promo code types.
const (
	PromoTypeFlat    = "FLAT"
	PromoTypePercent = "PERCENT"
)

// Notification types.
const (
	NotifOrderStatus       = "ORDER_STATUS"
	NotifCashbackCredited  = "CASHBACK_CREDITED"
	NotifReferralCompleted = "REFERRAL_COMPLETED"
	NotifMilestoneReached  = "MILESTONE_REACHED"
	NotifWelcomeBonus      = "WELCOME_BONUS"
)

// Milestone describes a one-time bonus unlocked when a referrer's count of
// completed referrals reaches Referrals.
type Milestone struct {
	Level     int
	Referrals int
	Bonus     int64
	Label     string
}

// Milestones is the fixed ascending milestone table. Level is persisted with
// each award, so entries must never be reordered or renumbered.
var Milestones = []Milestone{
	{Level: 1, Referrals: 1, Bonus: 50, Label: "First Referral"},
	{Level: 2, Referrals: 5, Bonus: 150, Label: "Rising Star"},
	{Level: 3, Referrals: 10, Bonus: 300, Label: "Super Sharer"},
	{Level: 4, Referrals: 25, Bonus: 750, Label: "Community Builder"},
	{Level: 5, Referrals: 50, Bonus: 1500, Label: "Brand Champion"},
	{Level: 6, Referrals: 100, Bonus: 5000, Label: "Crumble Legend"},
}

// Tier classifies a referrer by completed-referral count. The multiplier is
// shown in the app but is not applied to any credited amount.
type Tier struct {
	Name         string  `json:"name"`
	MinReferrals int     `json:"min_referrals"`
	Multiplier   float64 `json:"multiplier"`
}

var Tiers = []Tier{
	{Name: "Bronze", MinReferrals: 0, Multiplier: 1.0},
	{Name: "Silver", MinReferrals: 5, Multiplier: 1.1},
	{Name: "Gold", MinReferrals: 10, Multiplier: 1.2},
	{Name: "Platinum", MinReferrals: 25, Multiplier: 1.35},
	{Name: "Diamond", MinReferrals: 50, Multiplier: 1.5},
}

// TierFor returns the highest tier whose MinReferrals does not exceed count.
func TierFor(completedReferrals int) Tier {
	t := Tiers[0]
	for _, candidate := range Tiers {
		if completedReferrals >= candidate.MinReferrals {
			t = candidate
		}
	}
	return t
}
