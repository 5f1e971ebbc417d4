package service

import (
	"context"
	"errors"
	"math"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/maidbook/internal/booking/domain"
	customer "github.com/smallbiznis/maidbook/internal/customer/domain"
	"github.com/smallbiznis/maidbook/internal/notification"
	pricing "github.com/smallbiznis/maidbook/internal/pricing/domain"
	promo "github.com/smallbiznis/maidbook/internal/promo/domain"
	timeslot "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"github.com/smallbiznis/maidbook/pkg/money"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxQuantity         = 99
	aLaCarteHoursPerJob = 0.5
)

// CreateBooking prices the cart, validates any promo code, then reserves the
// slot, inserts the booking and redeems the promo in one transaction.
func (s *Service) CreateBooking(ctx context.Context, req domain.CreateBookingRequest) (domain.Booking, error) {
	cart := req.Cart

	size, err := pricing.ParseHouseSize(cart.HouseSize)
	if err != nil {
		return domain.Booking{}, err
	}
	freq, err := pricing.ParseFrequency(cart.Frequency)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := s.validateDate(cart.BookingDate); err != nil {
		return domain.Booking{}, err
	}
	if _, err := timeslot.StartOf(cart.TimeSlot); err != nil {
		return domain.Booking{}, err
	}
	standard, err := normalizeItems(cart.Services)
	if err != nil {
		return domain.Booking{}, err
	}
	addOns, err := normalizeItems(cart.ALaCarteServices)
	if err != nil {
		return domain.Booking{}, err
	}

	who, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return domain.Booking{}, err
	}

	base := s.pricing.BasePrice(size, freq)
	items, addOnTotal, err := s.priceItems(ctx, size, standard, addOns)
	if err != nil {
		return domain.Booking{}, err
	}
	subtotal := base + addOnTotal

	var applied *promo.ValidationResult
	if code := strings.TrimSpace(cart.PromoCode); code != "" {
		result, err := s.promos.Validate(ctx, promo.ValidateRequest{
			Code:       code,
			CustomerID: who.id,
			Subtotal:   subtotal,
		})
		if err != nil {
			return domain.Booking{}, err
		}
		if !result.Valid {
			s.metrics.RecordBookingRejected(ctx, string(result.Reason))
			return domain.Booking{}, result.Rejection()
		}
		applied = &result
	}

	discount := money.Zero
	if applied != nil {
		discount = applied.Discount
	}
	duration := math.Ceil(s.pricing.BaseDuration(size) + aLaCarteHoursPerJob*float64(len(cart.ALaCarteServices)))

	now := s.clock.Now()
	booking := domain.Booking{
		ID:                     s.genID.Generate(),
		Reference:              ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		CustomerID:             who.id,
		UserID:                 who.userID,
		IsGuest:                who.userID == nil,
		CustomerName:           who.name,
		CustomerEmail:          who.email,
		CustomerPhone:          who.phone,
		Address:                datatypes.NewJSONType(who.address(cart.Address)),
		HouseSize:              size,
		Frequency:              freq,
		Rooms:                  datatypes.NewJSONType(cart.Rooms),
		Items:                  datatypes.NewJSONSlice(items),
		BookingDate:            strings.TrimSpace(cart.BookingDate),
		BasePrice:              base,
		ALaCarteTotal:          addOnTotal,
		Subtotal:               subtotal,
		DiscountAmount:         discount,
		TotalAmount:            subtotal - discount,
		EstimatedDurationHours: int(duration),
		Status:                 domain.StatusPending,
		PaymentStatus:          domain.PaymentPending,
		SpecialInstructions:    strings.TrimSpace(cart.SpecialInstructions),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if applied != nil {
		code := applied.Code
		promoID := applied.PromoCodeID
		booking.PromoCode = &code
		booking.PromoCodeID = &promoID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slot, err := s.slots.Reserve(ctx, tx, booking.BookingDate, cart.TimeSlot, booking.ID)
		if err != nil {
			return err
		}
		booking.TimeSlot = slot.Label

		if err := s.repo.Insert(ctx, tx, &booking); err != nil {
			return err
		}

		if applied != nil {
			return s.promos.Redeem(ctx, tx, promo.RedeemRequest{
				PromoCodeID: applied.PromoCodeID,
				CustomerID:  who.id,
				BookingID:   booking.ID,
				Discount:    discount,
			})
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, timeslot.ErrSlotUnavailable):
			s.metrics.RecordSlotConflict(ctx)
			s.metrics.RecordBookingRejected(ctx, "slot_unavailable")
		case errors.Is(err, promo.ErrAlreadyUsed), errors.Is(err, promo.ErrUsageLimitReached):
			s.metrics.RecordBookingRejected(ctx, "promo_conflict")
		}
		return domain.Booking{}, err
	}

	channel := "customer"
	if booking.IsGuest {
		channel = "guest"
	}
	s.metrics.RecordBookingCreated(ctx, channel, string(freq), applied != nil)
	s.log.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("channel", channel),
		zap.String("total", booking.TotalAmount.String()),
	)

	if s.notifier != nil {
		if err := s.notifier.BookingConfirmed(ctx, noticeFor(booking)); err != nil {
			s.log.Warn("booking confirmation not delivered",
				zap.String("booking_id", booking.ID.String()),
				zap.Error(err),
			)
		}
	}

	return booking, nil
}

func (s *Service) validateDate(raw string) error {
	date, err := timeslot.ParseDate(raw)
	if err != nil {
		return err
	}
	today := s.clock.Now().In(s.loc).Format(timeslot.DateLayout)
	if date.Format(timeslot.DateLayout) < today {
		return domain.ErrBookingDateInPast
	}
	return nil
}

type cartLine struct {
	id       snowflake.ID
	quantity int
}

// normalizeItems drops unparseable ids and defaults a zero quantity to one.
func normalizeItems(in []domain.LineItemInput) ([]cartLine, error) {
	out := make([]cartLine, 0, len(in))
	for _, item := range in {
		if item.Quantity < 0 || item.Quantity > maxQuantity {
			return nil, domain.ErrInvalidQuantity
		}
		id, err := snowflake.ParseString(strings.TrimSpace(item.ServiceID))
		if err != nil || id <= 0 {
			continue
		}
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		out = append(out, cartLine{id: id, quantity: qty})
	}
	return out, nil
}

// priceItems snapshots the cart. Standard services are included at no charge;
// only active à-la-carte services add to the subtotal.
func (s *Service) priceItems(ctx context.Context, size pricing.HouseSize, standard, addOns []cartLine) ([]domain.LineItem, money.Amount, error) {
	ids := make([]snowflake.ID, 0, len(standard)+len(addOns))
	for _, line := range standard {
		ids = append(ids, line.id)
	}
	for _, line := range addOns {
		ids = append(ids, line.id)
	}
	if len(ids) == 0 {
		return []domain.LineItem{}, money.Zero, nil
	}

	services, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, money.Zero, err
	}

	items := make([]domain.LineItem, 0, len(ids))
	for _, line := range standard {
		svc, ok := services[line.id]
		if !ok || !svc.IsActive {
			continue
		}
		items = append(items, domain.LineItem{
			ServiceID: svc.ID,
			Name:      svc.Name,
			Quantity:  line.quantity,
			UnitPrice: money.Zero,
			Amount:    money.Zero,
		})
	}

	total := money.Zero
	for _, line := range addOns {
		svc, ok := services[line.id]
		if !ok || !svc.IsActive || !svc.IsALaCarte {
			continue
		}
		unit := s.pricing.UnitPrice(pricing.Item{Name: svc.Name, Price: svc.Price}, size)
		amount := unit.Mul(line.quantity)
		total += amount
		items = append(items, domain.LineItem{
			ServiceID:  svc.ID,
			Name:       svc.Name,
			Quantity:   line.quantity,
			UnitPrice:  unit,
			Amount:     amount,
			IsALaCarte: true,
		})
	}
	return items, total, nil
}

type bookingCustomer struct {
	id     string
	userID *snowflake.ID
	name   string
	email  string
	phone  string
	home   domain.Address
}

// address prefers the address given with the cart over the profile's.
func (c bookingCustomer) address(override *domain.Address) domain.Address {
	if override != nil && !override.Empty() {
		return *override
	}
	return c.home
}

func (s *Service) resolveCustomer(ctx context.Context, req domain.CreateBookingRequest) (bookingCustomer, error) {
	if userID := strings.TrimSpace(req.UserID); userID != "" {
		profile := customer.Profile{}
		if req.Contact != nil {
			profile = profileOf(*req.Contact)
		}
		c, err := s.customers.EnsureForUser(ctx, userID, profile)
		if err != nil {
			return bookingCustomer{}, err
		}
		uid := c.UserID
		return bookingCustomer{
			id:     c.CustomerKey(),
			userID: &uid,
			name:   c.FullName(),
			email:  c.Email,
			phone:  c.Phone,
			home: domain.Address{
				Street:  c.Address,
				City:    c.City,
				State:   c.State,
				ZipCode: c.ZipCode,
			},
		}, nil
	}

	if req.Contact == nil {
		return bookingCustomer{}, domain.ErrContactRequired
	}
	contact := *req.Contact
	email := strings.ToLower(strings.TrimSpace(contact.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return bookingCustomer{}, domain.ErrInvalidEmail
	}
	first := strings.TrimSpace(contact.FirstName)
	if first == "" {
		return bookingCustomer{}, domain.ErrInvalidName
	}
	return bookingCustomer{
		id:    customer.GuestID(email),
		name:  strings.TrimSpace(first + " " + strings.TrimSpace(contact.LastName)),
		email: email,
		phone: strings.TrimSpace(contact.Phone),
		home: domain.Address{
			Street:  strings.TrimSpace(contact.Address),
			City:    strings.TrimSpace(contact.City),
			State:   strings.TrimSpace(contact.State),
			ZipCode: strings.TrimSpace(contact.ZipCode),
		},
	}, nil
}

func profileOf(c domain.Contact) customer.Profile {
	return customer.Profile{
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Address:   c.Address,
		City:      c.City,
		State:     c.State,
		ZipCode:   c.ZipCode,
	}
}

func noticeFor(b domain.Booking) notification.BookingNotice {
	return notification.BookingNotice{
		Reference:     b.Reference,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		BookingDate:   b.BookingDate,
		TimeSlot:      b.TimeSlot,
		HouseSize:     string(b.HouseSize),
		Frequency:     string(b.Frequency),
		DurationHours: b.EstimatedDurationHours,
		Discount:      b.DiscountAmount,
		Total:         b.TotalAmount,
	}
}
