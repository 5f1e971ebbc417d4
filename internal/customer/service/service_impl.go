package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/customer/domain"
	"github.com/smallbiznis/maidbook/pkg/db/option"
	"github.com/smallbiznis/maidbook/pkg/db/pagination"
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
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) EnsureForUser(ctx context.Context, userID string, profile domain.Profile) (domain.Customer, error) {
	uid, err := parseID(userID)
	if err != nil {
		return domain.Customer{}, err
	}
	profile = normalizeProfile(profile)

	var out domain.Customer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByUserID(ctx, tx, uid)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if existing == nil {
			if !validEmail(profile.Email) {
				return domain.ErrInvalidEmail
			}
			customer := domain.Customer{
				ID:        s.genID.Generate(),
				UserID:    uid,
				CreatedAt: now,
			}
			applyProfile(&customer, profile)
			customer.UpdatedAt = now
			if err := s.repo.Insert(ctx, tx, &customer); err != nil {
				return err
			}
			out = customer
			return nil
		}

		if applyProfile(existing, profile) {
			existing.UpdatedAt = now
			if err := s.repo.Update(ctx, tx, existing); err != nil {
				return err
			}
		}
		out = *existing
		return nil
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return out, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, profile domain.Profile) (domain.Customer, error) {
	profile = normalizeProfile(profile)
	if profile.Email != "" && !validEmail(profile.Email) {
		return domain.Customer{}, domain.ErrInvalidEmail
	}
	customer, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return domain.Customer{}, err
	}
	if !applyProfile(&customer, profile) {
		return customer, nil
	}
	customer.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

func (s *Service) GetByUserID(ctx context.Context, userID string) (domain.Customer, error) {
	uid, err := parseID(userID)
	if err != nil {
		return domain.Customer{}, err
	}
	item, err := s.repo.FindByUserID(ctx, s.db, uid)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	cid, err := parseID(id)
	if err != nil {
		return domain.Customer{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, cid)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	filter := domain.ListCustomerFilter{
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Name:        strings.ToLower(strings.TrimSpace(req.Name)),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}

	pageSize := option.NormalizePageSize(int(req.PageSize))
	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, pageSize, func(customer *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: customer.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	return domain.ListCustomerResponse{PageInfo: pageInfo, Customers: customers}, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, s.db)
}

// applyProfile copies non-empty fields and reports whether anything changed.
func applyProfile(c *domain.Customer, p domain.Profile) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&c.Email, p.Email)
	set(&c.FirstName, p.FirstName)
	set(&c.LastName, p.LastName)
	set(&c.Phone, p.Phone)
	set(&c.Address, p.Address)
	set(&c.City, p.City)
	set(&c.State, p.State)
	set(&c.ZipCode, p.ZipCode)
	return changed
}

func normalizeProfile(p domain.Profile) domain.Profile {
	return domain.Profile{
		Email:     strings.ToLower(strings.TrimSpace(p.Email)),
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Phone:     strings.TrimSpace(p.Phone),
		Address:   strings.TrimSpace(p.Address),
		City:      strings.TrimSpace(p.City),
		State:     strings.TrimSpace(p.State),
		ZipCode:   strings.TrimSpace(p.ZipCode),
	}
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
