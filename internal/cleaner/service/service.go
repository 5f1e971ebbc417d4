package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/cleaner/domain"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("cleaner.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCleanerRequest) (domain.Cleaner, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Cleaner{}, domain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		return domain.Cleaner{}, domain.ErrInvalidEmail
	}

	now := s.clock.Now()
	cleaner := domain.Cleaner{
		ID:         s.genID.Generate(),
		Name:       name,
		Email:      email,
		Phone:      strings.TrimSpace(req.Phone),
		CalendarID: strings.TrimSpace(req.CalendarID),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, &cleaner); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Cleaner{}, domain.ErrEmailExists
		}
		return domain.Cleaner{}, err
	}
	return cleaner, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateCleanerRequest) (domain.Cleaner, error) {
	cleaner, err := s.load(ctx, id)
	if err != nil {
		return domain.Cleaner{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Cleaner{}, domain.ErrInvalidName
		}
		cleaner.Name = name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !strings.Contains(email, "@") {
			return domain.Cleaner{}, domain.ErrInvalidEmail
		}
		cleaner.Email = email
	}
	if req.Phone != nil {
		cleaner.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.CalendarID != nil {
		cleaner.CalendarID = strings.TrimSpace(*req.CalendarID)
	}
	if req.IsActive != nil {
		cleaner.IsActive = *req.IsActive
	}
	cleaner.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, cleaner); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Cleaner{}, domain.ErrEmailExists
		}
		return domain.Cleaner{}, err
	}
	return *cleaner, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) (domain.Cleaner, error) {
	inactive := false
	return s.Update(ctx, id, domain.UpdateCleanerRequest{IsActive: &inactive})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Cleaner, error) {
	cleaner, err := s.load(ctx, id)
	if err != nil {
		return domain.Cleaner{}, err
	}
	return *cleaner, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.Cleaner, error) {
	items, err := s.repo.List(ctx, s.db, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Cleaner, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Cleaner, error) {
	cid, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || cid == 0 {
		return nil, domain.ErrInvalidID
	}
	cleaner, err := s.repo.FindByID(ctx, s.db, cid)
	if err != nil {
		return nil, err
	}
	if cleaner == nil {
		return nil, domain.ErrNotFound
	}
	return cleaner, nil
}
