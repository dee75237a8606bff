package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	contactdomain "github.com/notifybiz/console/internal/contact/domain"
	"github.com/notifybiz/console/internal/dashboard/domain"
	plandomain "github.com/notifybiz/console/internal/plan/domain"
	templatedomain "github.com/notifybiz/console/internal/template/domain"
	"github.com/notifybiz/console/internal/tenantctx"
	vendordomain "github.com/notifybiz/console/internal/vendors/domain"
	wabadomain "github.com/notifybiz/console/internal/waba/domain"
	"github.com/notifybiz/console/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&vendordomain.Vendor{},
		&plandomain.Plan{},
		&contactdomain.Contact{},
		&templatedomain.Template{},
		&wabadomain.Account{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{DB: gdb, Log: zap.NewNop()})
	return svc, gdb, node
}

func TestGetVendorStatsScopedToTenant(t *testing.T) {
	svc, gdb, node := newTestService(t)

	mine := node.Generate()
	other := node.Generate()

	for i, vendor := range []snowflake.ID{mine, mine, other} {
		require.NoError(t, gdb.Create(&contactdomain.Contact{
			ID:          node.Generate(),
			VendorID:    vendor,
			Name:        "c",
			PhoneNumber: "+628111" + string(rune('0'+i)) + "00000",
		}).Error)
	}

	require.NoError(t, gdb.Create(&templatedomain.Template{
		ID: node.Generate(), VendorID: mine, Name: "welcome", Language: "en", Category: "UTILITY", Status: templatedomain.StatusApproved,
	}).Error)
	require.NoError(t, gdb.Create(&templatedomain.Template{
		ID: node.Generate(), VendorID: mine, Name: "promo", Language: "en", Category: "MARKETING", Status: templatedomain.StatusDraft,
	}).Error)

	require.NoError(t, gdb.Create(&wabadomain.Account{
		ID: node.Generate(), VendorID: mine, WABAID: "w1", Status: wabadomain.StatusConnected,
	}).Error)
	require.NoError(t, gdb.Create(&wabadomain.Account{
		ID: node.Generate(), VendorID: other, WABAID: "w2", Status: wabadomain.StatusConnected,
	}).Error)

	ctx := tenantctx.WithVendorID(context.Background(), mine)
	stats, err := svc.GetVendorStats(ctx)
	require.NoError(t, err)

	require.Equal(t, int64(2), stats.Contacts)
	require.Equal(t, int64(2), stats.Templates)
	require.Equal(t, int64(1), stats.TemplatesByState[templatedomain.StatusApproved])
	require.Equal(t, int64(1), stats.TemplatesByState[templatedomain.StatusDraft])
	require.Equal(t, int64(1), stats.WABAAccounts)
	require.Equal(t, int64(1), stats.ConnectedWABAs)
}

func TestGetVendorStatsRequiresTenant(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetVendorStats(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidVendor)
}

func TestGetAdminStatsCountsAcrossTenants(t *testing.T) {
	svc, gdb, node := newTestService(t)

	for _, status := range []string{vendordomain.StatusActive, vendordomain.StatusActive, vendordomain.StatusSuspended} {
		id := node.Generate()
		require.NoError(t, gdb.Create(&vendordomain.Vendor{
			ID: id, Name: "v" + id.String(), Slug: "v-" + id.String(), Status: status, OwnerUserID: node.Generate(),
		}).Error)
	}

	require.NoError(t, gdb.Create(&plandomain.Plan{
		ID: node.Generate(), Code: "FREE", Name: "Free", Interval: plandomain.IntervalMonthly, Currency: "USD",
	}).Error)

	require.NoError(t, gdb.Create(&wabadomain.Account{
		ID: node.Generate(), VendorID: node.Generate(), WABAID: "w1", Status: wabadomain.StatusConnected,
	}).Error)
	require.NoError(t, gdb.Create(&wabadomain.Account{
		ID: node.Generate(), VendorID: node.Generate(), WABAID: "w2", Status: wabadomain.StatusDisconnected,
	}).Error)

	stats, err := svc.GetAdminStats(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(3), stats.Vendors)
	require.Equal(t, int64(2), stats.VendorsByStatus[vendordomain.StatusActive])
	require.Equal(t, int64(1), stats.VendorsByStatus[vendordomain.StatusSuspended])
	require.Equal(t, int64(1), stats.Plans)
	require.Equal(t, int64(1), stats.ConnectedWABAs)
}
