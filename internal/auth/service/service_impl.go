package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/maidbook/internal/auth/domain"
	"github.com/smallbiznis/maidbook/internal/auth/password"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	customerdomain "github.com/smallbiznis/maidbook/internal/customer/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	tokenType       = "Bearer"
	defaultTokenTTL = 24 * time.Hour
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Repo      domain.Repository
	GenID     *snowflake.Node
	Clock     clock.Clock
	Customers customerdomain.Service
}

type Service struct {
	log       *zap.Logger
	repo      domain.Repository
	genID     *snowflake.Node
	clock     clock.Clock
	customers customerdomain.Service

	issuer string
	secret []byte
	ttl    time.Duration
}

func New(p Params) (domain.Service, error) {
	log := p.Log.Named("auth.service")

	secret := []byte(p.Config.AuthJWTSecret)
	if len(secret) == 0 {
		if p.Config.IsProduction() {
			return nil, domain.ErrMissingSecret
		}
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		log.Warn("AUTH_JWT_SECRET not set, using an ephemeral signing key",
			zap.String("key_fingerprint", hex.EncodeToString(secret[:4])),
		)
	}

	ttl := p.Config.AuthTokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &Service{
		log:       log,
		repo:      p.Repo,
		genID:     p.GenID,
		clock:     p.Clock,
		customers: p.Customers,
		issuer:    p.Config.AppName,
		secret:    secret,
		ttl:       ttl,
	}, nil
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.Token, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.Token{}, err
	}
	if err := password.Validate(req.Password); err != nil {
		return domain.Token{}, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return domain.Token{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.Token{}, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return domain.Token{}, err
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: hashed,
		Role:         domain.RoleCustomer,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
		LastLoginAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return domain.Token{}, err
	}

	// The profile is refreshed again on every booking, so a failure here
	// does not block the account.
	if _, err := s.customers.EnsureForUser(ctx, user.ID.String(), customerdomain.Profile{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	}); err != nil {
		s.log.Warn("failed to create customer profile",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return s.issue(*user)
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.Token, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.Token{}, domain.ErrInvalidCredentials
	}
	if req.Password == "" {
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Token{}, domain.ErrInvalidCredentials
		}
		return domain.Token{}, err
	}
	if !password.Verify(req.Password, user.PasswordHash) {
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	if err := s.repo.UpdateFields(ctx, user.ID, map[string]any{
		"last_login_at": now,
		"updated_at":    now,
	}); err != nil {
		return domain.Token{}, err
	}
	user.LastLoginAt = &now

	return s.issue(*user)
}

func (s *Service) Authenticate(ctx context.Context, raw string) (domain.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	var claims domain.Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.ErrTokenExpired
		}
		return domain.Identity{}, domain.ErrInvalidToken
	}

	userID, err := snowflake.ParseString(claims.Subject)
	if err != nil || userID == 0 {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	// Role comes from the row so demotions apply before the token expires.
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Identity{}, domain.ErrInvalidToken
		}
		return domain.Identity{}, err
	}

	return domain.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (domain.Me, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil || id == 0 {
		return domain.Me{}, domain.ErrUserNotFound
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Me{}, err
	}

	out := domain.Me{User: *user}
	profile, err := s.customers.GetByUserID(ctx, user.ID.String())
	switch {
	case err == nil:
		out.Customer = &profile
	case errors.Is(err, customerdomain.ErrNotFound):
	default:
		return domain.Me{}, err
	}
	return out, nil
}

func (s *Service) EnsureAdmin(ctx context.Context, email, plain, name string) (domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return domain.User{}, err
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return *existing, nil
		}
		if err := s.repo.UpdateFields(ctx, existing.ID, map[string]any{
			"role":       domain.RoleAdmin,
			"updated_at": s.clock.Now(),
		}); err != nil {
			return domain.User{}, err
		}
		existing.Role = domain.RoleAdmin
		s.log.Info("promoted user to admin", zap.String("user_id", existing.ID.String()))
		return *existing, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return domain.User{}, err
	}

	if err := password.Validate(plain); err != nil {
		return domain.User{}, err
	}
	hashed, err := password.Hash(plain)
	if err != nil {
		return domain.User{}, err
	}

	first, last := splitName(name)
	now := s.clock.Now()
	user := domain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: hashed,
		Role:         domain.RoleAdmin,
		FirstName:    first,
		LastName:     last,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return domain.User{}, err
	}
	s.log.Info("bootstrap admin created", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) issue(user domain.User) (domain.Token, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	claims := domain.Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return domain.Token{}, err
	}
	return domain.Token{
		AccessToken: signed,
		TokenType:   tokenType,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", domain.ErrInvalidEmail
	}
	return trimmed, nil
}

func splitName(name string) (string, string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
