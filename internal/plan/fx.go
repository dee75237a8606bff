package plan

import (
	"github.com/notifybiz/console/internal/plan/repository"
	"github.com/notifybiz/console/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
