package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/maidbook/internal/catalog/domain"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/pkg/money"
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
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateServiceRequest) (domain.CleaningService, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.CleaningService{}, domain.ErrInvalidName
	}
	if err := validatePricing(req.IsALaCarte, req.Price); err != nil {
		return domain.CleaningService{}, err
	}
	if req.DurationHours != nil && *req.DurationHours <= 0 {
		return domain.CleaningService{}, domain.ErrInvalidDuration
	}

	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category == "" {
		category = "cleaning"
	}

	now := s.clock.Now()
	svc := domain.CleaningService{
		ID:            s.genID.Generate(),
		Name:          name,
		Slug:          slug.Make(name),
		Category:      category,
		Description:   strings.TrimSpace(req.Description),
		IsALaCarte:    req.IsALaCarte,
		Price:         req.Price,
		DurationHours: req.DurationHours,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, s.db, &svc); err != nil {
		return domain.CleaningService{}, err
	}
	return svc, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateServiceRequest) (domain.CleaningService, error) {
	svc, err := s.load(ctx, id)
	if err != nil {
		return domain.CleaningService{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.CleaningService{}, domain.ErrInvalidName
		}
		svc.Name = name
		svc.Slug = slug.Make(name)
	}
	if req.Category != nil {
		svc.Category = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.Description != nil {
		svc.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		svc.Price = req.Price
	}
	if err := validatePricing(svc.IsALaCarte, svc.Price); err != nil {
		return domain.CleaningService{}, err
	}
	if req.DurationHours != nil {
		if *req.DurationHours <= 0 {
			return domain.CleaningService{}, domain.ErrInvalidDuration
		}
		svc.DurationHours = req.DurationHours
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	svc.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, svc); err != nil {
		return domain.CleaningService{}, err
	}
	return *svc, nil
}

// Archive hides a service from the public catalog. Existing bookings keep
// their snapshotted line items.
func (s *Service) Archive(ctx context.Context, id string) error {
	svc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	svc.IsActive = false
	svc.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, svc)
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.CleaningService, error) {
	svc, err := s.load(ctx, id)
	if err != nil {
		return domain.CleaningService{}, err
	}
	return *svc, nil
}

func (s *Service) List(ctx context.Context, req domain.ListServiceRequest) ([]domain.CleaningService, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListServiceFilter{
		ALaCarte:   req.ALaCarte,
		Category:   strings.ToLower(strings.TrimSpace(req.Category)),
		ActiveOnly: !req.IncludeArchive,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.CleaningService, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) FindByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.CleaningService, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]domain.CleaningService, len(items))
	for _, item := range items {
		out[item.ID] = *item
	}
	return out, nil
}

// SeedDefaults installs the starter catalog into an empty services table.
func (s *Service) SeedDefaults(ctx context.Context) error {
	count, err := s.repo.Count(ctx, s.db)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hours := func(v float64) *float64 { return &v }
	defaults := []domain.CreateServiceRequest{
		{Name: "Standard Cleaning", Category: "cleaning", Description: "Dusting, vacuuming, mopping, kitchen and bathroom cleaning", DurationHours: hours(2)},
		{Name: "Inside Fridge", Category: "kitchen", Description: "Empty, wipe and sanitize the refrigerator interior", IsALaCarte: true, Price: money.Ptr(money.Dollars(35))},
		{Name: "Inside Oven", Category: "kitchen", Description: "Degrease oven interior and racks", IsALaCarte: true, Price: money.Ptr(money.Dollars(35))},
		{Name: "Inside Cabinets", Category: "kitchen", Description: "Wipe cabinet interiors (must be empty)", IsALaCarte: true, Price: money.Ptr(money.Dollars(40))},
		{Name: "Interior Windows", Category: "windows", Description: "Interior glass, sills and tracks", IsALaCarte: true, Price: money.Ptr(money.Dollars(45))},
		{Name: "Dust Baseboards", Category: "detail", Description: "Hand-dust baseboards for homes up to 2500 sq ft", IsALaCarte: true, Price: money.Ptr(money.Dollars(20))},
		{Name: "Dust Baseboards", Category: "detail", Description: "Hand-dust baseboards for homes over 2500 sq ft", IsALaCarte: true, Price: money.Ptr(money.Dollars(30))},
		{Name: "Laundry (per load)", Category: "laundry", Description: "Wash, dry and fold one load", IsALaCarte: true, Price: money.Ptr(money.Dollars(15))},
	}
	for _, req := range defaults {
		if _, err := s.Create(ctx, req); err != nil {
			return err
		}
	}
	s.log.Info("seeded default catalog", zap.Int("services", len(defaults)))
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.CleaningService, error) {
	parsed, err := parseID(id)
	if err != nil {
		return nil, err
	}
	svc, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, domain.ErrNotFound
	}
	return svc, nil
}

func validatePricing(aLaCarte bool, price *money.Amount) error {
	if aLaCarte {
		if price == nil || *price <= 0 {
			return domain.ErrInvalidPrice
		}
		return nil
	}
	if price != nil {
		return domain.ErrPriceNotAllowed
	}
	return nil
}

func parseID(raw string) (snowflake.ID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v <= 0 {
		return 0, domain.ErrInvalidID
	}
	return snowflake.ID(v), nil
}

