package migration

import (
	"context"

	authdomain "github.com/notifybiz/console/internal/auth/domain"
	"github.com/notifybiz/console/internal/config"
	contactdomain "github.com/notifybiz/console/internal/contact/domain"
	plandomain "github.com/notifybiz/console/internal/plan/domain"
	"github.com/notifybiz/console/internal/seed"
	settingdomain "github.com/notifybiz/console/internal/setting/domain"
	templatedomain "github.com/notifybiz/console/internal/template/domain"
	vendordomain "github.com/notifybiz/console/internal/vendors/domain"
	wabadomain "github.com/notifybiz/console/internal/waba/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, plans plandomain.Service) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// The versioned migrations target postgres; other dialects are
			// for local development and get the schema from the models.
			if err := conn.AutoMigrate(
				&authdomain.User{},
				&authdomain.Session{},
				&plandomain.Plan{},
				&vendordomain.Vendor{},
				&settingdomain.Setting{},
				&contactdomain.Contact{},
				&templatedomain.Template{},
				&wabadomain.Account{},
			); err != nil {
				return err
			}
		}

		if err := seed.EnsureDefaultVendorAndAdmin(conn); err != nil {
			return err
		}
		return plans.EnsureDefaults(context.Background())
	}),
)
