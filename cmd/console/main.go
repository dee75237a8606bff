package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/notifybiz/console/internal/migration"
	"github.com/notifybiz/console/internal/observability"
	"github.com/notifybiz/console/internal/server"
	"github.com/notifybiz/console/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		server.Module,
		migration.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
