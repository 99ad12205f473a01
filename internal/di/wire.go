//go:build wireinject
// +build wireinject

package di

import (
	"VolCast/pkg/config"
	"VolCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideCache,
		ProvideMetrics,

		// Market data
		ProvidePriceSource,
		ProvideSessionManager,

		// Optional sinks
		ProvideHistoryStore,
		ProvideEventPublisher,

		// Use case and HTTP surface
		ProvideAnalysisUseCase,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
