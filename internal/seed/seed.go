package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/notifybiz/console/internal/auth/domain"
	"github.com/notifybiz/console/internal/auth/password"
	vendordomain "github.com/notifybiz/console/internal/vendors/domain"
	"gorm.io/gorm"
)

const (
	defaultVendorName = "Main"
	defaultVendorSlug = "main"

	defaultAdminEmail    = "admin@console.local"
	defaultAdminPassword = "admin"
	defaultAdminDisplay  = "Console Admin"
)

// EnsureDefaultVendorAndAdmin seeds the default vendor and admin user so a
// fresh install is usable without manual setup. Both inserts are idempotent.
func EnsureDefaultVendorAndAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := ensureAdminUserTx(ctx, tx, node)
		if err != nil {
			return err
		}
		_, err = ensureDefaultVendorTx(ctx, tx, node, user.ID)
		return err
	})
}

func ensureAdminUserTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (authdomain.User, error) {
	var user authdomain.User
	err := tx.WithContext(ctx).
		Where("provider = ? AND external_id = ?", "local", defaultAdminEmail).
		First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, err
	}

	hashed, err := password.Hash(defaultAdminPassword)
	if err != nil {
		return user, err
	}
	now := time.Now().UTC()
	user = authdomain.User{
		ID:           node.Generate(),
		ExternalID:   defaultAdminEmail,
		Provider:     "local",
		DisplayName:  defaultAdminDisplay,
		Email:        strings.ToLower(defaultAdminEmail),
		PasswordHash: &hashed,
		IsDefault:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		return user, err
	}
	return user, nil
}

func ensureDefaultVendorTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, ownerID snowflake.ID) (vendordomain.Vendor, error) {
	var vendor vendordomain.Vendor
	err := tx.WithContext(ctx).Where("slug = ?", defaultVendorSlug).First(&vendor).Error
	if err == nil {
		return vendor, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return vendor, err
	}

	now := time.Now().UTC()
	vendor = vendordomain.Vendor{
		ID:          node.Generate(),
		Name:        defaultVendorName,
		Slug:        defaultVendorSlug,
		Status:      vendordomain.StatusActive,
		OwnerUserID: ownerID,
		IsDefault:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(&vendor).Error; err != nil {
		return vendor, err
	}
	return vendor, nil
}
