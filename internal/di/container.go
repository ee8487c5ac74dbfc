package di

import (
	"go.uber.org/dig"

	"github.com/mikey/llm-mail-router/internal/config"
	"github.com/mikey/llm-mail-router/internal/core"
	"github.com/mikey/llm-mail-router/internal/factory"
	"github.com/mikey/llm-mail-router/internal/forwarder"
	"github.com/mikey/llm-mail-router/internal/logging"
	"github.com/mikey/llm-mail-router/internal/utils"
)

// BuildContainer creates the dependency injection container for the
// forwarding pipeline.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewSenderFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewObjectStoreFactory); err != nil {
		return nil, err
	}

	// Register inference client
	if err := container.Provide(func(f *factory.LLMFactory) (core.InferenceClient, error) {
		return f.CreateInferenceClient()
	}); err != nil {
		return nil, err
	}

	// Register config store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ConfigStore, error) {
		return f.CreateConfigStore()
	}); err != nil {
		return nil, err
	}

	// Register mail sender
	if err := container.Provide(func(f *factory.SenderFactory) (core.MailSender, error) {
		return f.CreateMailSender()
	}); err != nil {
		return nil, err
	}

	// Register raw mail store
	if err := container.Provide(func(f *factory.ObjectStoreFactory) (core.ObjectStore, error) {
		return f.CreateObjectStore()
	}); err != nil {
		return nil, err
	}

	// Register prompt builder
	if err := container.Provide(func(text *utils.TextProcessor) core.PromptBuilder {
		return core.NewLiteralPromptBuilder(text)
	}); err != nil {
		return nil, err
	}

	// Register router
	if err := container.Provide(core.NewRouter); err != nil {
		return nil, err
	}

	// Register forwarder configuration
	if err := container.Provide(func(cfg *config.Config) forwarder.Config {
		s3Cfg := cfg.GetS3()
		fwdCfg := cfg.GetForwarding()
		return forwarder.Config{
			KeyPrefix:      s3Cfg.KeyPrefix,
			ForwardTo:      fwdCfg.ForwardTo,
			FromAddress:    fwdCfg.FromAddress,
			RoutingEnabled: fwdCfg.RoutingEnabled,
		}
	}); err != nil {
		return nil, err
	}

	// Register forwarder
	if err := container.Provide(forwarder.New); err != nil {
		return nil, err
	}

	return container, nil
}
