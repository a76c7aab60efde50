package service

import (
	"errors"
	"log"
	"strings"

	"crumble/config"
	"crumble/internal/auth"
	"crumble/internal/domain"
	"crumble/internal/models"
	"crumble/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
)

// AuthService registers and authenticates customers. Registration also hands
// out the welcome bonus and records the referral when a code was supplied;
// both are best-effort and never fail the signup.
type AuthService struct {
	cfg       *config.Config
	userRepo  *repository.UserRepository
	wallet    *WalletLedger
	referrals *ReferralEngine
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, wallet *WalletLedger, referrals *ReferralEngine) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, wallet: wallet, referrals: referrals}
}

func (s *AuthService) Register(email, name, phone, password, referralCode string) (*models.User, string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Email:        email,
		Name:         name,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", err
	}
	s.onSignup(u, referralCode)

	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return u, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return u, access, "", err
	}
	return u, access, refresh, nil
}

// onSignup runs the signup side effects: welcome bonus and referral record.
func (s *AuthService) onSignup(u *models.User, referralCode string) {
	if s.wallet != nil && s.cfg.Incentive.WelcomeBonus > 0 {
		if err := s.wallet.Credit(u.ID, s.cfg.Incentive.WelcomeBonus, domain.WalletTxWelcomeBonus, nil, "Welcome bonus"); err != nil {
			log.Printf("[auth] welcome bonus for user %d: %v", u.ID, err)
		}
	}
	if s.referrals != nil && referralCode != "" {
		if _, err := s.referrals.CreateReferral(u.ID, referralCode); err != nil {
			log.Printf("[auth] referral for user %d with code %s: %v", u.ID, referralCode, err)
		}
	}
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if u.PasswordHash == "" {
		return nil, "", "", ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return u, access, refresh, nil
}

// LoginWithGoogle creates or finds a user by Google ID and returns user +
// tokens + isNew flag. referralCode is only honored for brand-new users.
func (s *AuthService) LoginWithGoogle(googleID, email, name, referralCode string) (*models.User, string, string, bool, error) {
	u, err := s.userRepo.GetByGoogleID(googleID)
	if err == nil {
		access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
		refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
		return u, access, refresh, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", false, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	// Link Google to an existing password account with the same email.
	if existing, err := s.userRepo.GetByEmail(email); err == nil {
		gid := googleID
		existing.GoogleID = &gid
		if err := s.userRepo.Update(existing); err != nil {
			return nil, "", "", false, err
		}
		access, _ := auth.GenerateAccessToken(&s.cfg.JWT, existing.ID, existing.Email, existing.Role)
		refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, existing.ID)
		return existing, access, refresh, false, nil
	}
	gid := googleID
	u = &models.User{
		Email:    email,
		Name:     name,
		GoogleID: &gid,
		Role:     domain.RoleCustomer,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", false, err
	}
	s.onSignup(u, referralCode)
	access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return u, access, refresh, true, nil
}

// ChangePassword updates the user's password after verifying the current one.
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return ErrInvalidCreds
	}
	if u.PasswordHash == "" {
		return errors.New("account uses Google sign-in; set a password first")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.userRepo.Update(u)
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func (s *AuthService) RefreshToken(refreshToken string) (access, refresh string, err error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return "", "", err
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", "", auth.ErrInvalidToken
	}
	access, _ = auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	refresh, _ = auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return access, refresh, nil
}
