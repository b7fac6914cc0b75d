//go:build wireinject
// +build wireinject

package di

import (
	"SentiPull/pkg/config"
	"SentiPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideLimiter,
		ProvideKafkaProducer,
		ProvideFeaturePublisher,

		// Data sources and collaborators
		ProvidePriceSource,
		ProvideSocialSource,
		ProvideClassifier,
		ProvideCalendar,
		ProvideExtractor,

		// Use cases
		ProvideOrchestrator,
		ProvidePipeline,

		// HTTP surface
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
