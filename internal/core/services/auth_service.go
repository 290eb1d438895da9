package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/config"
	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/pkg/jwt"
	"nsl-memberhub/internal/pkg/password"
)

var (
	ErrInvalidCredentials  = errors.New("invalid phone or password")
	ErrPhoneTaken          = errors.New("phone number already registered")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrWeakPassword        = errors.New("password must be at least 8 characters")
	ErrReferralCodeInvalid = errors.New("referral code not found")
	ErrTokenRevoked        = errors.New("refresh token revoked or expired")
)

// AuthService handles registration, login and the refresh token lifecycle.
// The configured referral bonus percentage is snapshotted onto the account at
// registration, so later config changes never reprice an existing referral.
type AuthService struct {
	store repositories.Store
	cfg   *config.Config
}

// NewAuthService creates an auth service.
func NewAuthService(store repositories.Store, cfg *config.Config) *AuthService {
	return &AuthService{store: store, cfg: cfg}
}

// TokenPair is the issued access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // access token lifetime in seconds
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Phone        string `json:"phone"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

// Register creates an account and issues its first token pair.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.Account, *TokenPair, error) {
	input.Phone = strings.TrimSpace(input.Phone)
	input.Username = strings.TrimSpace(input.Username)
	if input.Phone == "" || input.Username == "" {
		return nil, nil, domain.ErrValidationFailed
	}
	if !password.Validate(input.Password) {
		return nil, nil, ErrWeakPassword
	}

	if taken, err := s.store.Accounts().ExistsByPhone(ctx, input.Phone); err != nil {
		return nil, nil, err
	} else if taken {
		return nil, nil, ErrPhoneTaken
	}
	if taken, err := s.store.Accounts().ExistsByUsername(ctx, input.Username); err != nil {
		return nil, nil, err
	} else if taken {
		return nil, nil, ErrUsernameTaken
	}

	var referredBy *string
	var bonusPct float64
	if code := strings.TrimSpace(input.ReferralCode); code != "" {
		referrer, err := s.store.Accounts().GetByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return nil, nil, ErrReferralCodeInvalid
			}
			return nil, nil, err
		}
		referredBy = &referrer.ReferralCode
		bonusPct = s.cfg.Referral.BonusPercentage
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, nil, err
	}

	referralCode, err := s.generateReferralCode(ctx)
	if err != nil {
		return nil, nil, err
	}

	account := &models.Account{
		Phone:            input.Phone,
		Username:         input.Username,
		Email:            strings.TrimSpace(input.Email),
		Password:         hashed,
		Role:             models.RoleUser,
		Status:           models.AccountStatusPending,
		VipLevel:         domain.VipLevelNone,
		ReferralCode:     referralCode,
		ReferredBy:       referredBy,
		ReferralBonusPct: bonusPct,
	}
	if err := s.store.Accounts().Create(ctx, account); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return account, tokens, nil
}

// Login verifies credentials and issues a token pair. Frozen accounts are
// refused.
func (s *AuthService) Login(ctx context.Context, phone, pass string) (*models.Account, *TokenPair, error) {
	account, err := s.store.Accounts().GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !password.Verify(pass, account.Password) {
		return nil, nil, ErrInvalidCredentials
	}
	if account.Status == models.AccountStatusFrozen {
		return nil, nil, domain.ErrAccountFrozen
	}

	tokens, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return account, tokens, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair is issued. A revoked or expired token is refused.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		return nil, ErrTokenRevoked
	}

	stored, err := s.store.RefreshTokens().GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		return nil, ErrTokenRevoked
	}
	if stored.IsRevoked() || stored.IsExpired() || stored.AccountID != claims.AccountID {
		return nil, ErrTokenRevoked
	}

	account, err := s.store.Accounts().GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, err
	}
	if account.Status == models.AccountStatusFrozen {
		return nil, domain.ErrAccountFrozen
	}

	if err := s.store.RefreshTokens().RevokeByTokenHash(ctx, stored.TokenHash); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, account)
}

// Logout revokes the presented refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.store.RefreshTokens().RevokeByTokenHash(ctx, password.HashToken(refreshToken))
}

// LogoutAll revokes every refresh token the account holds.
func (s *AuthService) LogoutAll(ctx context.Context, accountID uint) error {
	return s.store.RefreshTokens().RevokeAllByAccountID(ctx, accountID)
}

func (s *AuthService) issueTokens(ctx context.Context, account *models.Account) (*TokenPair, error) {
	access, err := jwt.GenerateAccessToken(
		account.ID, account.Phone, account.Username, account.Role,
		s.cfg.JWT.Secret, s.cfg.JWT.AccessExpiryMinutes,
	)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.NewString()
	refresh, err := jwt.GenerateRefreshToken(account.ID, tokenID, s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshExpiryDays)
	if err != nil {
		return nil, err
	}

	if err := s.store.RefreshTokens().Create(ctx, &models.RefreshToken{
		AccountID: account.ID,
		TokenHash: password.HashToken(refresh),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshExpiryDays),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.cfg.JWT.AccessExpiryMinutes * 60,
	}, nil
}

func (s *AuthService) generateReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		_, err := s.store.Accounts().GetByReferralCode(ctx, code)
		if errors.Is(err, domain.ErrAccountNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not generate a unique referral code")
}
