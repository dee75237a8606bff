package template

import (
	"github.com/notifybiz/console/internal/template/repository"
	"github.com/notifybiz/console/internal/template/service"
	"go.uber.org/fx"
)

var Module = fx.Module("template.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
