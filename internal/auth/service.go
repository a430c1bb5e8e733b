package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/common/validation"
	accountdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/account"
)

type Repository interface {
	GetCredentialByEmail(ctx context.Context, email string) (*accountdm.Credential, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateAccount(ctx context.Context, cred *accountdm.Credential, profile *accountdm.Profile, role *accountdm.UserRole) error
	UpdatePasswordHash(ctx context.Context, accountID, hash string) error
	DeleteAccount(ctx context.Context, accountID string) error
	LoadSession(ctx context.Context, accountID string) (*Session, error)
}

// IdentityProvider is the elevated credential API used by admin operations.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	UpdatePassword(ctx context.Context, accountID, password string) error
	DeleteUser(ctx context.Context, accountID string) error
}

type ServiceAPI interface {
	Signup(ctx context.Context, dto SignupDTO) (AuthTokens, error)
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ResolveSession(ctx context.Context, accountID string) (*Session, error)
}

// Service is the built-in identity provider: bcrypt credentials and JWT sessions.
type Service struct {
	repo           Repository
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(repo Repository, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Signup creates a credential together with its profile and the default role.
func (s *Service) Signup(ctx context.Context, dto SignupDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	id, err := s.CreateUser(ctx, dto.Email, dto.Password, dto.DisplayName)
	if err != nil {
		return AuthTokens{}, err
	}

	return s.issueTokens(id, normalizeEmail(dto.Email))
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	cred, err := s.repo.GetCredentialByEmail(ctx, normalizeEmail(dto.Email))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("credential lookup failed", "error", err)
			return AuthTokens{}, internal.NewInternalError("failed to authenticate", err)
		}
		return AuthTokens{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	return s.issueTokens(cred.ID, cred.Email)
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	// the account may have been deleted since the token was issued
	if _, err := s.repo.LoadSession(ctx, claims.UserID); err != nil {
		return AuthTokens{}, ErrInvalidToken
	}

	return s.issueTokens(claims.UserID, claims.Email)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// ResolveSession loads the caller's current role and headed projects.
func (s *Service) ResolveSession(ctx context.Context, accountID string) (*Session, error) {
	sess, err := s.repo.LoadSession(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, internal.NewInternalError("failed to resolve session", err)
	}
	return sess, nil
}

func (s *Service) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	email = normalizeEmail(email)
	if appErr := validation.ValidatePassword(password); appErr != nil {
		return "", appErr
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return "", internal.NewInternalError("failed to check email", err)
	}
	if exists {
		return "", ErrEmailRegistered
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return "", internal.NewInternalError("failed to hash password", err)
	}

	if strings.TrimSpace(displayName) == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	id := uuid.New().String()
	cred := &accountdm.Credential{ID: id, Email: email, PasswordHash: hash}
	profile := &accountdm.Profile{ID: id, Email: email, DisplayName: strings.TrimSpace(displayName)}
	role := &accountdm.UserRole{AccountID: id, Role: string(RoleRegular)}

	if err := s.repo.CreateAccount(ctx, cred, profile, role); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrEmailRegistered
		}
		return "", internal.NewInternalError("failed to create account", err)
	}

	s.logger.Info("account created", "account_id", id)
	return id, nil
}

func (s *Service) UpdatePassword(ctx context.Context, accountID, password string) error {
	if appErr := validation.ValidatePassword(password); appErr != nil {
		return appErr
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return internal.NewNotFoundError("Account not found", internal.ErrCodeAccountNotFound)
		}
		return internal.NewInternalError("failed to update password", err)
	}
	return nil
}

func (s *Service) DeleteUser(ctx context.Context, accountID string) error {
	if err := s.repo.DeleteAccount(ctx, accountID); err != nil {
		return internal.NewInternalError("failed to delete account", err)
	}
	return nil
}

func (s *Service) issueTokens(userID, email string) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(userID, email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenGenerator.AccessTTL().Seconds()),
	}, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (j *JWTTokenGenerator) GenerateAccessToken(userID, email string) (string, error) {
	return j.sign(userID, email, tokenTypeAccess, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(userID, email string) (string, error) {
	return j.sign(userID, email, tokenTypeRefresh, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) AccessTTL() time.Duration {
	return j.AccessTokenTTL
}

func (j *JWTTokenGenerator) sign(userID, email, typ string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, tokenTypeAccess, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, tokenTypeRefresh, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) validate(tokenString, typ string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != typ || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
