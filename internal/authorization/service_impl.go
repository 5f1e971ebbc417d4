package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type grant struct {
	role   string
	object string
	action string
}

func (g grant) rule() []string {
	return []string{rolePrincipal(g.role), g.object, g.action}
}

// Admins hold every permission. Customers may only book, pay for and read
// their own bookings and invoices, and check promo codes.
var builtinGrants = []grant{
	{RoleAdmin, "*", "*"},
	{RoleCustomer, ObjectBooking, ActionBookingCreate},
	{RoleCustomer, ObjectBooking, ActionBookingViewOwn},
	{RoleCustomer, ObjectBooking, ActionBookingPayOwn},
	{RoleCustomer, ObjectInvoice, ActionInvoiceViewOwn},
	{RoleCustomer, ObjectPromo, ActionPromoValidate},
}

func rolePrincipal(role string) string { return "role:" + role }

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads policies from the casbin_rule table and adds any
// built-in grant that is missing, so new grants reach existing databases.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}

	var missing [][]string
	for _, g := range builtinGrants {
		has, err := enforcer.HasPolicy(g.rule())
		if err != nil {
			return nil, err
		}
		if !has {
			missing = append(missing, g.rule())
		}
	}
	if len(missing) > 0 {
		if _, err := enforcer.AddPolicies(missing); err != nil {
			return nil, err
		}
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, subject string, role string, object string, action string) error {
	req, err := newRequest(subject, role, object, action)
	if err != nil {
		return err
	}
	if err := s.bindRole(req.subject, req.role); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(req.subject, req.object, req.action)
	if err != nil {
		return err
	}
	if allowed {
		return nil
	}
	s.log.Info("authorization denied",
		zap.String("subject", req.subject),
		zap.String("role", req.role),
		zap.String("object", req.object),
		zap.String("action", req.action),
	)
	return ErrForbidden
}

type request struct {
	subject, role, object, action string
}

func newRequest(subject, role, object, action string) (request, error) {
	req := request{
		subject: strings.TrimSpace(subject),
		role:    strings.ToLower(strings.TrimSpace(role)),
		object:  strings.TrimSpace(object),
		action:  strings.TrimSpace(action),
	}
	switch {
	case req.subject == "":
		return request{}, ErrInvalidActor
	case req.role != RoleAdmin && req.role != RoleCustomer:
		return request{}, ErrInvalidRole
	case req.object == "":
		return request{}, ErrInvalidObject
	case req.action == "":
		return request{}, ErrInvalidAction
	}
	return req, nil
}

// bindRole links subject to exactly one role. The role comes from the token
// on every request, so a promoted or demoted user is re-linked here.
func (s *ServiceImpl) bindRole(subject, role string) error {
	want := rolePrincipal(role)
	links, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}

	linked := false
	for _, link := range links {
		if len(link) < 2 {
			continue
		}
		if link[1] == want {
			linked = true
			continue
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(link[0], link[1]); err != nil {
			return err
		}
	}
	if linked {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, want)
	return err
}
