//go:build wireinject
// +build wireinject

package di

import (
	"SessionEdge/pkg/config"
	"SessionEdge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
    wire.Build(
        ProvideLogger,
        ProvideLocation,
        ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Repositories
		ProvideBarSource,
		ProvideReportPublisher,
		ProvideResultCache,

		// Progress fan-out
		ProvideProgressHub,
		ProvideProgressSink,

        // Use cases
        ProvideAnalysisConfig,
        ProvideReportOptions,
        ProvideAnalysisUseCase,
        ProvideReportUseCase,
        ProvideRunService,
        ProvideTradeIdeas,

		// HTTP
		ProvideAPIHandler,
		ProvideHTTPHandler,
		ProvideHTTPServer,

        ProvideLogCollector,
        ProvideApp,
    )
    return nil, nil, nil
}
