package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/vendors/domain"
	"github.com/notifybiz/console/internal/vendors/repository"
	"github.com/notifybiz/console/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&domain.Vendor{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestCreateGeneratesSlug(t *testing.T) {
	svc := newTestService(t)
	node, _ := snowflake.NewNode(2)
	owner := node.Generate()

	vendor, err := svc.Create(context.Background(), domain.CreateVendorRequest{
		Name:        "Acme Telco ID",
		OwnerUserID: owner.String(),
	})
	require.NoError(t, err)
	require.Equal(t, "acme-telco-id", vendor.Slug)
	require.Equal(t, domain.StatusActive, vendor.Status)
}

func TestCreateDuplicateNameGetsSuffixedSlug(t *testing.T) {
	svc := newTestService(t)
	node, _ := snowflake.NewNode(2)
	owner := node.Generate()

	first, err := svc.Create(context.Background(), domain.CreateVendorRequest{
		Name:        "Acme",
		OwnerUserID: owner.String(),
	})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), domain.CreateVendorRequest{
		Name:        "Acme",
		OwnerUserID: owner.String(),
	})
	require.NoError(t, err)
	require.NotEqual(t, first.Slug, second.Slug)
	require.Contains(t, second.Slug, "acme-")
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(t)
	node, _ := snowflake.NewNode(2)
	owner := node.Generate()

	vendor, err := svc.Create(context.Background(), domain.CreateVendorRequest{
		Name:        "Acme",
		OwnerUserID: owner.String(),
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), domain.UpdateVendorRequest{
		ID:     vendor.ID.String(),
		Status: "PAUSED",
	})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestListByOwner(t *testing.T) {
	svc := newTestService(t)
	node, _ := snowflake.NewNode(2)
	owner := node.Generate()
	other := node.Generate()

	_, err := svc.Create(context.Background(), domain.CreateVendorRequest{Name: "One", OwnerUserID: owner.String()})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), domain.CreateVendorRequest{Name: "Two", OwnerUserID: owner.String()})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), domain.CreateVendorRequest{Name: "Three", OwnerUserID: other.String()})
	require.NoError(t, err)

	vendors, err := svc.ListByOwner(context.Background(), owner.String())
	require.NoError(t, err)
	require.Len(t, vendors, 2)
}
