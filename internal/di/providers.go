package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"VolCast/internal/domain/repository"
	domsvc "VolCast/internal/domain/service"
	"VolCast/internal/handler/api"
	internalrepo "VolCast/internal/repository"
	"VolCast/internal/service/coingecko"
	"VolCast/internal/usecase"
	"VolCast/pkg/cache"
	pkgch "VolCast/pkg/clickhouse"
	"VolCast/pkg/config"
	pkgkafka "VolCast/pkg/kafka"
	applogger "VolCast/pkg/logger"
	"VolCast/pkg/metrics"
	"VolCast/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if lc.Level == "" {
		lc.Level = "info"
	}
	if lc.Format == "" {
		lc.Format = "console"
	}
	if lc.Output == "" {
		lc.Output = "stdout"
	}
	return applogger.New(lc)
}

// ProvideCache creates the shared cache: Redis when configured, otherwise
// an in-process memory cache.
func ProvideCache(cfg *config.Config, l *applogger.Logger) cache.Service {
	if cfg.Cache.Redis.Enabled {
		host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
		if err != nil {
			host = cfg.Cache.Redis.Addr
			portStr = "6379"
		}
		port, _ := strconv.Atoi(portStr)
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(host),
			cache.WithRedisPort(port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err == nil {
			l.Info("cache: layered memory+redis", applogger.String("addr", cfg.Cache.Redis.Addr))
			return cache.NewLayeredCache(rc)
		}
		l.Warn("redis unavailable, falling back to memory cache", applogger.Error(err))
	}
	return cache.NewMemoryCache()
}

// ProvidePriceSource creates the CoinGecko market data source.
func ProvidePriceSource(cfg *config.Config, c cache.Service, l *applogger.Logger) domsvc.PriceSource {
	return coingecko.New(&coingecko.Config{
		BaseURL:     cfg.CoinGecko.BaseURL,
		APIKey:      cfg.CoinGecko.APIKey,
		Timeout:     cfg.CoinGecko.Timeout,
		CoinListTTL: cfg.CoinGecko.CoinListTTL,
	}, c, l)
}

// ProvideSessionManager creates the named session registry.
func ProvideSessionManager(cfg *config.Config, src domsvc.PriceSource) *usecase.SessionManager {
	return usecase.NewSessionManager(src, cfg.Model.Lambda)
}

// ProvideHistoryStore creates the ClickHouse analysis history store, or nil
// when history is disabled.
func ProvideHistoryStore(cfg *config.Config, l *applogger.Logger) (repository.HistoryStore, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	ch := cfg.History.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewCHHistoryStore(client)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideEventPublisher creates the Kafka analysis event publisher, or nil
// when events are disabled.
func ProvideEventPublisher(cfg *config.Config, l *applogger.Logger) (repository.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	k := cfg.Events.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithBatchSize(k.Producer.BatchSize),
		pkgkafka.WithBatchBytes(k.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(k.Producer.Linger),
		pkgkafka.WithTimeouts(k.Producer.WriteTimeout, k.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(k.Producer.MaxAttempts),
		pkgkafka.WithAsync(k.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	pub := internalrepo.NewKafkaEventPublisher(producer, k.Topic)
	pub.SetLogger(l)
	return pub, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideAnalysisUseCase creates the analysis command use case.
func ProvideAnalysisUseCase(
	cfg *config.Config,
	sessions *usecase.SessionManager,
	history repository.HistoryStore,
	events repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(sessions, history, events, m, l, usecase.AnalysisDefaults{
		Days:       cfg.Model.LookbackDays,
		Horizon:    cfg.Model.Horizon,
		Confidence: cfg.Model.Confidence,
		Exposure:   cfg.Model.Exposure,
	})
}

// ProvideHandler creates the HTTP handler with response caching attached.
func ProvideHandler(l *applogger.Logger, uc *usecase.AnalysisUseCase, c cache.Service) *api.AnalysisEchoHandler {
	h := api.NewAnalysisEchoHandler(l, uc)
	h.SetCache(c)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.AnalysisEchoHandler,
	history repository.HistoryStore,
	events repository.EventPublisher,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, handler, history, events, c)
}
