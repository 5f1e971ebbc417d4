package authorization

import (
	"context"
	"testing"

	"github.com/smallbiznis/maidbook/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (Service, *ServiceImpl) {
	t.Helper()
	db := testutil.NewDB(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	svc := NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
	return svc, svc.(*ServiceImpl)
}

func TestAdminMayDoEverything(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, tc := range []struct{ object, action string }{
		{ObjectBooking, ActionBookingUpdate},
		{ObjectInvoice, ActionInvoiceGenerate},
		{ObjectReport, ActionReportView},
		{ObjectPromo, ActionPromoManage},
	} {
		assert.NoError(t, svc.Authorize(ctx, "user:1", "admin", tc.object, tc.action), tc.action)
	}
}

func TestCustomerPermissions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, "user:2", "customer", ObjectBooking, ActionBookingCreate))
	assert.NoError(t, svc.Authorize(ctx, "user:2", "customer", ObjectBooking, ActionBookingViewOwn))
	assert.NoError(t, svc.Authorize(ctx, "user:2", "customer", ObjectInvoice, ActionInvoiceViewOwn))
	assert.NoError(t, svc.Authorize(ctx, "user:2", "customer", ObjectPromo, ActionPromoValidate))

	assert.ErrorIs(t, svc.Authorize(ctx, "user:2", "customer", ObjectBooking, ActionBookingUpdate), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:2", "customer", ObjectReport, ActionReportView), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:2", "customer", ObjectInvoice, ActionInvoiceView), ErrForbidden)
}

func TestRoleChangeReplacesGrouping(t *testing.T) {
	svc, impl := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, "user:3", "admin", ObjectReport, ActionReportView))
	assert.ErrorIs(t, svc.Authorize(ctx, "user:3", "customer", ObjectReport, ActionReportView), ErrForbidden)

	rules, err := impl.enforcer.GetFilteredGroupingPolicy(0, "user:3")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "role:customer", rules[0][1])
}

func TestAuthorizeValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, "", "admin", ObjectBooking, ActionBookingView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:4", "owner", ObjectBooking, ActionBookingView), ErrInvalidRole)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:4", "admin", "", ActionBookingView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:4", "admin", ObjectBooking, " "), ErrInvalidAction)
}

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := NewEnforcer(db)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	policies, err := enforcer.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, 6)
}

func TestSeedRestoresMissingGrant(t *testing.T) {
	db := testutil.NewDB(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	removed, err := enforcer.RemovePolicy(rolePrincipal(RoleCustomer), ObjectBooking, ActionBookingPayOwn)
	require.NoError(t, err)
	require.True(t, removed)

	enforcer, err = NewEnforcer(db)
	require.NoError(t, err)
	has, err := enforcer.HasPolicy(rolePrincipal(RoleCustomer), ObjectBooking, ActionBookingPayOwn)
	require.NoError(t, err)
	assert.True(t, has)
}
