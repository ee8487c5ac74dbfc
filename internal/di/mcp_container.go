package di

import (
	"go.uber.org/dig"

	"github.com/mikey/llm-mail-router/internal/config"
	"github.com/mikey/llm-mail-router/internal/core"
	"github.com/mikey/llm-mail-router/internal/factory"
	"github.com/mikey/llm-mail-router/internal/logging"
	"github.com/mikey/llm-mail-router/internal/mcp"
)

// BuildMCPContainer creates the dependency injection container for the
// configuration management server.
func BuildMCPContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register store factory
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}

	// Register config store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ConfigStore, error) {
		return f.CreateConfigStore()
	}); err != nil {
		return nil, err
	}

	// Register protocol components
	if err := container.Provide(mcp.NewAuthenticator); err != nil {
		return nil, err
	}
	if err := container.Provide(mcp.NewToolService); err != nil {
		return nil, err
	}
	if err := container.Provide(mcp.NewHandler); err != nil {
		return nil, err
	}

	return container, nil
}
