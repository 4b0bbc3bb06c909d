package app

import (
	"time"

	"gpurun/pkg/ports"
)

// Config holds the tunables for the acquire loop.
type Config struct {
	// PollInterval is the delay between selection attempts while waiting.
	PollInterval time.Duration
}

// App ties device discovery, the lock coordinator and the selection logic
// together.
type App struct {
	cfg   *Config
	ports *ports.Collection
}

func New(cfg *Config, ports *ports.Collection) App {
	return App{
		cfg:   cfg,
		ports: ports,
	}
}
