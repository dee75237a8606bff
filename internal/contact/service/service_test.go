package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/contact/domain"
	"github.com/notifybiz/console/internal/contact/repository"
	"github.com/notifybiz/console/internal/tenantctx"
	"github.com/notifybiz/console/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, context.Context) {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&domain.Contact{}))

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

func TestCreateNormalizesPhone(t *testing.T) {
	svc, ctx := newTestService(t)

	contact, err := svc.Create(ctx, domain.CreateContactRequest{
		Name:        "Budi",
		PhoneNumber: "+62 812-3456-7890",
	})
	require.NoError(t, err)
	require.Equal(t, "+6281234567890", contact.PhoneNumber)
}

func TestCreateRejectsMissingCountryCode(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.Create(ctx, domain.CreateContactRequest{
		Name:        "Budi",
		PhoneNumber: "081234567890",
	})
	require.ErrorIs(t, err, domain.ErrInvalidPhone)
}

func TestBulkCreateSkipsDuplicatesAndBadRows(t *testing.T) {
	svc, ctx := newTestService(t)

	result, err := svc.BulkCreate(ctx, []domain.CreateContactRequest{
		{Name: "A", PhoneNumber: "+6281111111111"},
		{Name: "B", PhoneNumber: "+6281111111111"},
		{Name: "", PhoneNumber: "+6282222222222"},
		{Name: "C", PhoneNumber: "+6283333333333"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)
	require.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
}

func TestListPaginates(t *testing.T) {
	svc, ctx := newTestService(t)

	for _, phone := range []string{"+6281000000001", "+6281000000002", "+6281000000003"} {
		_, err := svc.Create(ctx, domain.CreateContactRequest{Name: "N", PhoneNumber: phone})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, domain.ListContactRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Contacts, 2)
	require.True(t, first.HasMore)

	second, err := svc.List(ctx, domain.ListContactRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Contacts, 1)
	require.False(t, second.HasMore)
}
