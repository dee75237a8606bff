package vendors

import (
	"github.com/notifybiz/console/internal/vendors/repository"
	"github.com/notifybiz/console/internal/vendors/service"
	"go.uber.org/fx"
)

var Module = fx.Module("vendor.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
