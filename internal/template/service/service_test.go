package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/template/domain"
	"github.com/notifybiz/console/internal/template/repository"
	"github.com/notifybiz/console/internal/tenantctx"
	"github.com/notifybiz/console/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, context.Context) {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&domain.Template{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	ctx := tenantctx.WithVendorID(context.Background(), node.Generate())
	return svc, ctx
}

func TestCreateNormalizesName(t *testing.T) {
	svc, ctx := newTestService(t)

	template, err := svc.Create(ctx, domain.CreateTemplateRequest{
		Name:     "Order Update",
		Language: "en_US",
		Category: "utility",
	})
	require.NoError(t, err)
	require.Equal(t, "order_update", template.Name)
	require.Equal(t, domain.CategoryUtility, template.Category)
	require.Equal(t, domain.StatusDraft, template.Status)
}

func TestSubmitForApprovalOnlyFromDraft(t *testing.T) {
	svc, ctx := newTestService(t)

	template, err := svc.Create(ctx, domain.CreateTemplateRequest{
		Name:     "otp",
		Language: "en",
		Category: domain.CategoryAuthentication,
	})
	require.NoError(t, err)

	submitted, err := svc.SubmitForApproval(ctx, template.ID.String())
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, submitted.Status)

	_, err = svc.SubmitForApproval(ctx, template.ID.String())
	require.ErrorIs(t, err, domain.ErrNotEditable)
}

func TestUpdateRejectedResetsToDraft(t *testing.T) {
	svc, ctx := newTestService(t)

	template, err := svc.Create(ctx, domain.CreateTemplateRequest{
		Name:     "promo",
		Language: "en",
		Category: domain.CategoryMarketing,
	})
	require.NoError(t, err)

	_, err = svc.Sync(ctx, []domain.RemoteTemplate{
		{ID: "r-1", Name: "promo", Language: "en", Category: "MARKETING", Status: "REJECTED"},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, domain.UpdateTemplateRequest{
		ID:   template.ID.String(),
		Body: "Second try",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusDraft, updated.Status)
}

func TestSyncImportsAndLinks(t *testing.T) {
	svc, ctx := newTestService(t)

	local, err := svc.Create(ctx, domain.CreateTemplateRequest{
		Name:     "order_update",
		Language: "en",
		Category: domain.CategoryUtility,
	})
	require.NoError(t, err)

	result, err := svc.Sync(ctx, []domain.RemoteTemplate{
		{ID: "r-10", Name: "order_update", Language: "en", Category: "UTILITY", Status: "APPROVED"},
		{ID: "r-11", Name: "welcome", Language: "en", Category: "MARKETING", Status: "APPROVED"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	require.Equal(t, 1, result.Linked)
	require.Equal(t, 1, result.Updated)

	refreshed, err := svc.GetByID(ctx, local.ID.String())
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, refreshed.Status)
	require.Equal(t, "r-10", refreshed.RemoteID)
}

func TestAnalyticsCounts(t *testing.T) {
	svc, ctx := newTestService(t)

	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, domain.CreateTemplateRequest{
			Name:     name,
			Language: "en",
			Category: domain.CategoryUtility,
		})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, domain.ListTemplateRequest{PageSize: 10})
	require.NoError(t, err)
	_, err = svc.SubmitForApproval(ctx, first.Templates[0].ID.String())
	require.NoError(t, err)

	analytics, err := svc.Analytics(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), analytics.Total)
	require.Equal(t, int64(2), analytics.Draft)
	require.Equal(t, int64(1), analytics.Pending)
}
