package contact

import (
	"github.com/notifybiz/console/internal/contact/repository"
	"github.com/notifybiz/console/internal/contact/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contact.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
