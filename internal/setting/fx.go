package setting

import (
	"github.com/notifybiz/console/internal/setting/repository"
	"github.com/notifybiz/console/internal/setting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("setting.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
