package waba

import (
	"github.com/notifybiz/console/internal/providers/meta"
	"github.com/notifybiz/console/internal/waba/repository"
	"github.com/notifybiz/console/internal/waba/service"
	"go.uber.org/fx"
)

var Module = fx.Module("waba.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(client *meta.Client) service.Graph { return client }),
	fx.Provide(service.New),
)
