package authorization

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/notifybiz/console/internal/auth/domain"
	vendordomain "github.com/notifybiz/console/internal/vendors/domain"
	"github.com/notifybiz/console/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixtures struct {
	svc    Service
	admin  snowflake.ID
	owner  snowflake.ID
	other  snowflake.ID
	vendor snowflake.ID
}

func newFixtures(t *testing.T) fixtures {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&authdomain.User{}, &vendordomain.Vendor{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	admin := createUser(t, gdb, node, "admin@console.local", true)
	owner := createUser(t, gdb, node, "owner@acme.test", false)
	other := createUser(t, gdb, node, "other@acme.test", false)

	vendor := node.Generate()
	require.NoError(t, gdb.Create(&vendordomain.Vendor{
		ID: vendor, Name: "Acme", Slug: "acme", Status: vendordomain.StatusActive, OwnerUserID: owner,
	}).Error)

	enforcer, err := NewEnforcer(gdb)
	require.NoError(t, err)

	svc := NewService(Params{DB: gdb, Log: zap.NewNop(), Enforcer: enforcer})
	return fixtures{svc: svc, admin: admin, owner: owner, other: other, vendor: vendor}
}

func createUser(t *testing.T, gdb *gorm.DB, node *snowflake.Node, email string, isDefault bool) snowflake.ID {
	t.Helper()
	id := node.Generate()
	require.NoError(t, gdb.Create(&authdomain.User{
		ID: id, ExternalID: id.String(), Email: email, IsDefault: isDefault,
	}).Error)
	return id
}

func TestVendorOwnerManagesOwnTenant(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()
	actor := "user:" + f.owner.String()

	require.NoError(t, f.svc.Authorize(ctx, actor, f.vendor.String(), ObjectContact, ActionContactCreate))
	require.NoError(t, f.svc.Authorize(ctx, actor, f.vendor.String(), ObjectWABA, ActionWABAConnect))
	require.NoError(t, f.svc.Authorize(ctx, actor, f.vendor.String(), ObjectDashboard, ActionDashboardView))
}

func TestVendorOwnerCannotCreateVendors(t *testing.T) {
	f := newFixtures(t)
	actor := "user:" + f.owner.String()

	err := f.svc.Authorize(context.Background(), actor, f.vendor.String(), ObjectVendor, ActionVendorCreate)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestStrangerHasNoRole(t *testing.T) {
	f := newFixtures(t)
	actor := "user:" + f.other.String()

	err := f.svc.Authorize(context.Background(), actor, f.vendor.String(), ObjectContact, ActionContactView)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAdminManagesEverything(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()
	actor := "user:" + f.admin.String()

	require.NoError(t, f.svc.Authorize(ctx, actor, f.vendor.String(), ObjectVendor, ActionVendorCreate))
	require.NoError(t, f.svc.Authorize(ctx, actor, f.vendor.String(), ObjectPlan, ActionPlanManage))
	require.NoError(t, f.svc.Authorize(ctx, actor, f.vendor.String(), ObjectDashboard, ActionDashboardAdminView))
}

func TestSystemActor(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Authorize(ctx, "system", f.vendor.String(), ObjectTemplate, ActionTemplateSync))
	require.ErrorIs(t, f.svc.Authorize(ctx, "system", f.vendor.String(), ObjectContact, ActionContactDelete), ErrForbidden)
}

func TestRejectsMalformedActor(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	require.ErrorIs(t, f.svc.Authorize(ctx, "", f.vendor.String(), ObjectContact, ActionContactView), ErrInvalidActor)
	require.ErrorIs(t, f.svc.Authorize(ctx, "robot:1", f.vendor.String(), ObjectContact, ActionContactView), ErrInvalidActor)
	require.ErrorIs(t, f.svc.Authorize(ctx, "user:abc", f.vendor.String(), ObjectContact, ActionContactView), ErrInvalidActor)
	require.ErrorIs(t, f.svc.Authorize(ctx, "user:"+f.owner.String(), "", ObjectContact, ActionContactView), ErrInvalidVendor)
}
