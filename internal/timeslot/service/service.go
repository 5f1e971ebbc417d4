package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	"github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var defaultStartHours = []int{8, 10, 12, 14, 16}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
	Repo   domain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	loc        *time.Location
	startHours []int
	slotHours  int
}

func New(p Params) domain.Service {
	startHours := p.Config.Slots.StartHours
	if len(startHours) == 0 {
		startHours = defaultStartHours
	}
	slotHours := p.Config.Slots.SlotHours
	if slotHours <= 0 {
		slotHours = 2
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("timeslot.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		loc:        p.Config.Location(),
		startHours: startHours,
		slotHours:  slotHours,
	}
}

func (s *Service) EnsureHorizon(ctx context.Context, from time.Time, days int) (int64, error) {
	if days <= 0 || days > 366 {
		return 0, domain.ErrInvalidHorizon
	}

	now := s.clock.Now()
	day := from.In(s.loc)
	slots := make([]*domain.TimeSlot, 0, days*len(s.startHours))
	for i := 0; i < days; i++ {
		date := day.AddDate(0, 0, i).Format(domain.DateLayout)
		for _, hour := range s.startHours {
			slots = append(slots, &domain.TimeSlot{
				ID:          s.genID.Generate(),
				SlotDate:    date,
				StartTime:   time.Date(0, 1, 1, hour, 0, 0, 0, time.UTC).Format(domain.HourLayout),
				EndTime:     time.Date(0, 1, 1, hour+s.slotHours, 0, 0, 0, time.UTC).Format(domain.HourLayout),
				Label:       domain.FormatLabel(hour, s.slotHours),
				IsAvailable: true,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
	}

	created, err := s.repo.InsertMissing(ctx, s.db, slots)
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.log.Info("time slots generated",
			zap.String("from", day.Format(domain.DateLayout)),
			zap.Int("days", days),
			zap.Int64("created", created),
		)
	}
	return created, nil
}

func (s *Service) ListByDate(ctx context.Context, date string, onlyAvailable bool) ([]domain.TimeSlot, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByDate(ctx, s.db, date, onlyAvailable)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TimeSlot, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) AvailableDates(ctx context.Context, from time.Time, days int) ([]string, error) {
	if days <= 0 || days > 366 {
		return nil, domain.ErrInvalidHorizon
	}
	start := from.In(s.loc)
	dates, err := s.repo.AvailableDates(ctx, s.db,
		start.Format(domain.DateLayout),
		start.AddDate(0, 0, days-1).Format(domain.DateLayout),
	)
	if err != nil {
		return nil, err
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

func (s *Service) Get(ctx context.Context, date, label string) (domain.TimeSlot, error) {
	start, err := normalize(date, label)
	if err != nil {
		return domain.TimeSlot{}, err
	}
	slot, err := s.repo.FindByStart(ctx, s.db, date, start)
	if err != nil {
		return domain.TimeSlot{}, err
	}
	if slot == nil {
		return domain.TimeSlot{}, domain.ErrSlotNotFound
	}
	return *slot, nil
}

func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, date, label string, bookingID snowflake.ID) (domain.TimeSlot, error) {
	start, err := normalize(date, label)
	if err != nil {
		return domain.TimeSlot{}, err
	}

	ok, err := s.repo.Reserve(ctx, tx, date, start, bookingID, s.clock.Now())
	if err != nil {
		return domain.TimeSlot{}, err
	}

	slot, err := s.repo.FindByStart(ctx, tx, date, start)
	if err != nil {
		return domain.TimeSlot{}, err
	}
	if slot == nil {
		return domain.TimeSlot{}, domain.ErrSlotNotFound
	}
	if !ok {
		return domain.TimeSlot{}, domain.ErrSlotUnavailable
	}
	return *slot, nil
}

func (s *Service) Release(ctx context.Context, tx *gorm.DB, date, label string, bookingID snowflake.ID) error {
	start, err := normalize(date, label)
	if err != nil {
		return err
	}
	ok, err := s.repo.Release(ctx, tx, date, start, bookingID, s.clock.Now())
	if err != nil {
		return err
	}
	if !ok {
		s.log.Warn("slot release matched no reservation",
			zap.String("date", date),
			zap.String("start_time", start),
			zap.String("booking_id", bookingID.String()),
		)
	}
	return nil
}

func (s *Service) SetAvailability(ctx context.Context, date, label string, available bool) (domain.TimeSlot, error) {
	start, err := normalize(date, label)
	if err != nil {
		return domain.TimeSlot{}, err
	}

	var out domain.TimeSlot
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slot, err := s.repo.FindByStart(ctx, tx, date, start)
		if err != nil {
			return err
		}
		if slot == nil {
			return domain.ErrSlotNotFound
		}
		if slot.BookingID != nil {
			return domain.ErrSlotReserved
		}
		if _, err := s.repo.SetAvailability(ctx, tx, date, start, available, s.clock.Now()); err != nil {
			return err
		}
		updated, err := s.repo.FindByStart(ctx, tx, date, start)
		if err != nil {
			return err
		}
		out = *updated
		return nil
	})
	if err != nil {
		return domain.TimeSlot{}, err
	}
	return out, nil
}

func normalize(date, label string) (string, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return "", err
	}
	return domain.StartOf(label)
}
