package service

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/observability/metrics"
	"github.com/smallbiznis/maidbook/internal/promo/domain"
	"github.com/smallbiznis/maidbook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("promo.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Service) Validate(ctx context.Context, req domain.ValidateRequest) (domain.ValidationResult, error) {
	result, err := s.validate(ctx, req)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	s.metrics.RecordPromoValidation(ctx, string(result.Reason))
	return result, nil
}

func (s *Service) validate(ctx context.Context, req domain.ValidateRequest) (domain.ValidationResult, error) {
	code := NormalizeCode(req.Code)
	if code == "" {
		return reject(req, domain.ReasonCodeRequired, ""), nil
	}

	promo, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	if promo == nil {
		return reject(req, domain.ReasonNotFound, ""), nil
	}
	if !promo.IsActive {
		return reject(req, domain.ReasonInactive, ""), nil
	}

	now := s.clock.Now()
	if promo.ValidFrom != nil && now.Before(*promo.ValidFrom) {
		return reject(req, domain.ReasonNotYetValid, ""), nil
	}
	if promo.ValidUntil != nil && now.After(*promo.ValidUntil) {
		return reject(req, domain.ReasonExpired, ""), nil
	}
	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return reject(req, domain.ReasonUsageLimitReached, ""), nil
	}

	used, err := s.repo.CountUsages(ctx, s.db, promo.ID, req.CustomerID)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	if used >= int64(promo.PerCustomerLimit()) {
		return reject(req, domain.ReasonAlreadyUsed, ""), nil
	}

	if promo.MinimumOrderAmount != nil && req.Subtotal < *promo.MinimumOrderAmount {
		return reject(req, domain.ReasonMinimumNotMet, domain.MinimumNotMetMessage(*promo.MinimumOrderAmount)), nil
	}
	if len(promo.ApplicableCustomers) > 0 && !slices.Contains([]string(promo.ApplicableCustomers), req.CustomerID) {
		return reject(req, domain.ReasonCustomerNotEligible, ""), nil
	}

	discount := ComputeDiscount(*promo, req.Subtotal)
	return domain.ValidationResult{
		Valid:       true,
		Message:     "Promo code applied successfully",
		Discount:    discount,
		FinalAmount: req.Subtotal - discount,
		PromoCodeID: promo.ID,
		Code:        promo.Code,
	}, nil
}

func reject(req domain.ValidateRequest, reason domain.Reason, message string) domain.ValidationResult {
	if message == "" {
		message = reason.Message()
	}
	return domain.ValidationResult{
		Valid:       false,
		Reason:      reason,
		Message:     message,
		FinalAmount: req.Subtotal,
	}
}

// Redeem claims one use of the promo for a customer. The conditional
// increment locks the promo row, so the per-customer count that follows sees
// every redemption committed before it.
func (s *Service) Redeem(ctx context.Context, tx *gorm.DB, req domain.RedeemRequest) error {
	now := s.clock.Now()
	ok, err := s.repo.IncrementUsage(ctx, tx, req.PromoCodeID, now)
	if err != nil {
		return err
	}
	if !ok {
		return s.redeemRefusal(ctx, tx, req.PromoCodeID, now)
	}

	promo, err := s.repo.FindByID(ctx, tx, req.PromoCodeID)
	if err != nil {
		return err
	}
	if promo == nil {
		return domain.ErrNotFound
	}
	used, err := s.repo.CountUsages(ctx, tx, req.PromoCodeID, req.CustomerID)
	if err != nil {
		return err
	}
	if used >= int64(promo.PerCustomerLimit()) {
		return domain.ErrAlreadyUsed
	}

	return s.repo.InsertUsage(ctx, tx, &domain.PromoCodeUsage{
		ID:             s.genID.Generate(),
		PromoCodeID:    req.PromoCodeID,
		CustomerID:     req.CustomerID,
		BookingID:      req.BookingID,
		DiscountAmount: req.Discount,
		CreatedAt:      now,
	})
}

// redeemRefusal explains a failed conditional increment: the code was
// switched off or expired after validation, or its last use was taken.
func (s *Service) redeemRefusal(ctx context.Context, tx *gorm.DB, id snowflake.ID, now time.Time) error {
	promo, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return err
	}
	switch {
	case promo == nil:
		return domain.ErrNotFound
	case !promo.IsActive:
		return &domain.RejectionError{Reason: domain.ReasonInactive, Message: domain.ReasonInactive.Message()}
	case promo.ValidUntil != nil && now.After(*promo.ValidUntil):
		return &domain.RejectionError{Reason: domain.ReasonExpired, Message: domain.ReasonExpired.Message()}
	}
	return domain.ErrUsageLimitReached
}

func (s *Service) Create(ctx context.Context, req domain.CreatePromoRequest) (domain.PromoCode, error) {
	code := NormalizeCode(req.Code)
	if !codePattern.MatchString(code) {
		return domain.PromoCode{}, domain.ErrInvalidCode
	}

	now := s.clock.Now()
	promo := domain.PromoCode{
		ID:                    s.genID.Generate(),
		Code:                  code,
		Description:           strings.TrimSpace(req.Description),
		DiscountType:          req.DiscountType,
		DiscountValue:         req.DiscountValue,
		MinimumOrderAmount:    req.MinimumOrderAmount,
		MaximumDiscountAmount: req.MaximumDiscountAmount,
		UsageLimit:            req.UsageLimit,
		UsageLimitPerCustomer: req.UsageLimitPerCustomer,
		ValidFrom:             req.ValidFrom,
		ValidUntil:            req.ValidUntil,
		IsActive:              true,
		ApplicableCustomers:   datatypes.NewJSONSlice(cleanList(req.ApplicableCustomers)),
		ApplicableServices:    datatypes.NewJSONSlice(cleanList(req.ApplicableServices)),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}
	if err := validatePromo(promo); err != nil {
		return domain.PromoCode{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &promo); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.PromoCode{}, domain.ErrCodeExists
		}
		return domain.PromoCode{}, err
	}
	return promo, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdatePromoRequest) (domain.PromoCode, error) {
	promo, err := s.load(ctx, id)
	if err != nil {
		return domain.PromoCode{}, err
	}

	if req.Description != nil {
		promo.Description = strings.TrimSpace(*req.Description)
	}
	if req.DiscountType != nil {
		promo.DiscountType = *req.DiscountType
	}
	if req.DiscountValue != nil {
		promo.DiscountValue = *req.DiscountValue
	}
	if req.MinimumOrderAmount != nil {
		promo.MinimumOrderAmount = req.MinimumOrderAmount
	}
	if req.MaximumDiscountAmount != nil {
		promo.MaximumDiscountAmount = req.MaximumDiscountAmount
	}
	if req.UsageLimit != nil {
		promo.UsageLimit = req.UsageLimit
	}
	if req.UsageLimitPerCustomer != nil {
		promo.UsageLimitPerCustomer = req.UsageLimitPerCustomer
	}
	if req.ValidFrom != nil {
		promo.ValidFrom = req.ValidFrom
	}
	if req.ValidUntil != nil {
		promo.ValidUntil = req.ValidUntil
	}
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}
	if req.ApplicableCustomers != nil {
		promo.ApplicableCustomers = datatypes.NewJSONSlice(cleanList(req.ApplicableCustomers))
	}
	if req.ApplicableServices != nil {
		promo.ApplicableServices = datatypes.NewJSONSlice(cleanList(req.ApplicableServices))
	}
	if err := validatePromo(*promo); err != nil {
		return domain.PromoCode{}, err
	}

	promo.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, promo); err != nil {
		return domain.PromoCode{}, err
	}
	return *promo, nil
}

// Delete removes the promo. Its usage ledger rows are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	promo, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, promo.ID)
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.PromoCode, error) {
	promo, err := s.load(ctx, id)
	if err != nil {
		return domain.PromoCode{}, err
	}
	return *promo, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.PromoCode, error) {
	items, err := s.repo.List(ctx, s.db, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PromoCode, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) ListUsages(ctx context.Context, id string) ([]domain.PromoCodeUsage, error) {
	promo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListUsages(ctx, s.db, promo.ID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PromoCodeUsage, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.PromoCode, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || parsed <= 0 {
		return nil, domain.ErrInvalidID
	}
	promo, err := s.repo.FindByID(ctx, s.db, snowflake.ID(parsed))
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, domain.ErrNotFound
	}
	return promo, nil
}

func validatePromo(p domain.PromoCode) error {
	switch p.DiscountType {
	case domain.DiscountTypePercentage:
		if !p.DiscountValue.IsPositive() || p.DiscountValue.GreaterThan(hundred) {
			return domain.ErrInvalidDiscountValue
		}
	case domain.DiscountTypeFixed:
		if !p.DiscountValue.IsPositive() {
			return domain.ErrInvalidDiscountValue
		}
	default:
		return domain.ErrInvalidDiscountType
	}
	if !p.DiscountValue.Equal(p.DiscountValue.Round(2)) {
		return domain.ErrInvalidDiscountValue
	}
	if p.UsageLimit != nil && *p.UsageLimit < 1 {
		return domain.ErrInvalidUsageLimit
	}
	if p.UsageLimitPerCustomer != nil && *p.UsageLimitPerCustomer < 1 {
		return domain.ErrInvalidUsageLimit
	}
	if p.MinimumOrderAmount != nil && *p.MinimumOrderAmount < 0 {
		return domain.ErrInvalidAmount
	}
	if p.MaximumDiscountAmount != nil && *p.MaximumDiscountAmount <= 0 {
		return domain.ErrInvalidAmount
	}
	if p.ValidFrom != nil && p.ValidUntil != nil && p.ValidUntil.Before(*p.ValidFrom) {
		return domain.ErrInvalidValidity
	}
	return nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

