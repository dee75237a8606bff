package auth

import (
	"github.com/notifybiz/console/internal/auth/repository"
	"github.com/notifybiz/console/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
