//go:build wireinject
// +build wireinject

package inject

import (
	"github.com/google/wire"

	"gpurun/internal/config"
	"gpurun/pkg/app"
	"gpurun/pkg/ports"
)

func InitializePorts(cfg *config.Config) (*ports.Collection, error) {
	wire.Build(appPorts)

	return nil, nil
}

func InitializeApp(cfg *app.Config, ports *ports.Collection) app.App {
	wire.Build(app.New)

	return app.App{}
}
