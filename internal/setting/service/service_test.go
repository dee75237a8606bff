package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/setting/domain"
	"github.com/notifybiz/console/internal/setting/repository"
	"github.com/notifybiz/console/internal/tenantctx"
	"github.com/notifybiz/console/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, context.Context) {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&domain.Setting{}))

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

func TestSensitiveValueIsMasked(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.Upsert(ctx, domain.UpsertSettingRequest{
		Key:         "webhook_secret",
		Value:       "shh-very-secret",
		IsSensitive: true,
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "webhook_secret")
	require.NoError(t, err)
	require.Equal(t, domain.MaskedValue, got.Value)

	raw, err := svc.GetRaw(ctx, "webhook_secret")
	require.NoError(t, err)
	require.Equal(t, "shh-very-secret", raw)
}

func TestListPublicExcludesSensitive(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.Upsert(ctx, domain.UpsertSettingRequest{Key: "brand_name", Value: "Acme", IsPublic: true})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, domain.UpsertSettingRequest{Key: "api_token", Value: "tok", IsPublic: true, IsSensitive: true})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, domain.UpsertSettingRequest{Key: "internal_flag", Value: "on"})
	require.NoError(t, err)

	public, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"brand_name": "Acme"}, public)
}

func TestUpsertOverwritesValue(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.Upsert(ctx, domain.UpsertSettingRequest{Key: "Greeting", Value: "hello"})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, domain.UpsertSettingRequest{Key: "greeting", Value: "hi"})
	require.NoError(t, err)

	raw, err := svc.GetRaw(ctx, "greeting")
	require.NoError(t, err)
	require.Equal(t, "hi", raw)

	views, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
}

func TestMissingVendorContext(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.List(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidVendor)
}
