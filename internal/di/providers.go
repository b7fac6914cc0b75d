package di

import (
	"fmt"
	"io"

	"SentiPull/internal/domain/repository"
	"SentiPull/internal/handler/api"
	internalrepo "SentiPull/internal/repository"
	"SentiPull/internal/service/alphavantage"
	icache "SentiPull/internal/service/cache"
	"SentiPull/internal/service/calendar"
	"SentiPull/internal/service/metrics"
	"SentiPull/internal/service/ratelimit"
	"SentiPull/internal/service/sentiment"
	"SentiPull/internal/service/twitter"
	"SentiPull/internal/services/features"
	"SentiPull/internal/usecase"
	"SentiPull/pkg/config"
	xhttp "SentiPull/pkg/http"
	pkgkafka "SentiPull/pkg/kafka"
	applogger "SentiPull/pkg/logger"
	"SentiPull/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the payload cache: Redis when configured,
// otherwise an in-process TTL map.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	if cfg.Cache.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideLimiter creates the shared upstream rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvidePriceSource creates the Alpha Vantage price client.
func ProvidePriceSource(
	cfg *config.Config,
	c icache.BytesCache,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
	l *applogger.Logger,
) repository.PriceSource {
	return alphavantage.New(alphavantage.Options{
		BaseURL:    cfg.AlphaVantage.BaseURL,
		APIKey:     cfg.AlphaVantage.APIKey,
		Timeout:    cfg.AlphaVantage.Timeout,
		MaxRetries: cfg.AlphaVantage.MaxRetries,
		BaseDelay:  cfg.AlphaVantage.BaseDelay,
		Cache:      c,
		CacheTTL:   cfg.Cache.TTL,
		Limiter:    limiter,
		LimCap:     cfg.RateLimit.Capacity,
		LimRate:    cfg.RateLimit.RefillPerSec,
		Metrics:    m,
	}, l)
}

// ProvideSocialSource creates the social post client.
func ProvideSocialSource(
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
	l *applogger.Logger,
) repository.SocialSource {
	return twitter.New(twitter.Options{
		BaseURL:    cfg.Twitter.BaseURL,
		Token:      cfg.Twitter.Token,
		PageSize:   cfg.Twitter.PageSize,
		Timeout:    cfg.Twitter.Timeout,
		MaxRetries: cfg.Twitter.MaxRetries,
		BaseDelay:  cfg.Twitter.BaseDelay,
		Limiter:    limiter,
		LimCap:     cfg.RateLimit.Capacity,
		LimRate:    cfg.RateLimit.RefillPerSec,
		Metrics:    m,
	}, l)
}

// ProvideClassifier creates the HTTP sentiment classifier client.
func ProvideClassifier(cfg *config.Config, l *applogger.Logger) repository.SentimentClassifier {
	return sentiment.NewHTTPClassifier(sentiment.Options{
		ServiceURL: cfg.Sentiment.ServiceURL,
		Timeout:    cfg.Sentiment.Timeout,
		BatchSize:  cfg.Sentiment.BatchSize,
	}, l)
}

// ProvideCalendar creates the market trading calendar.
func ProvideCalendar(cfg *config.Config) (repository.TradingCalendar, error) {
	cal, err := calendar.New(cfg.Market.Timezone, cfg.Market.CloseHour, cfg.Holidays())
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	return cal, nil
}

// ProvideExtractor creates the indicator extractor from configured
// window sizes.
func ProvideExtractor(cfg *config.Config) *features.Extractor {
	return features.New(features.Windows{
		SMA:        cfg.Indicators.SMAWindow,
		RSI:        cfg.Indicators.RSIWindow,
		MACDFast:   cfg.Indicators.MACDFast,
		MACDSlow:   cfg.Indicators.MACDSlow,
		MACDSignal: cfg.Indicators.MACDSignal,
		Bollinger:  cfg.Indicators.BollingerWindow,
	})
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideFeaturePublisher creates the Kafka feature publisher, or nil
// when Kafka is disabled.
func ProvideFeaturePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.FeaturePublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaFeaturePublisher(producer, cfg.Kafka.Topic)
}

// ProvideOrchestrator creates the bounded-concurrency ingestion
// orchestrator.
func ProvideOrchestrator(
	prices repository.PriceSource,
	social repository.SocialSource,
	cfg *config.Config,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(
		prices,
		social,
		cfg.Pipeline.MaxWorkers,
		repository.OutputSize(cfg.AlphaVantage.OutputSize),
		cfg.Twitter.TweetCap,
		m,
		l,
	)
}

// ProvidePipeline creates the full pipeline use case.
func ProvidePipeline(
	orch *usecase.Orchestrator,
	classifier repository.SentimentClassifier,
	cal repository.TradingCalendar,
	extractor *features.Extractor,
	publisher repository.FeaturePublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(orch, classifier, cal, extractor, publisher, m, l)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(l *applogger.Logger, p *usecase.Pipeline, cfg *config.Config) xhttp.Handler {
	return api.NewFeaturesEchoHandler(l, p, cfg.Pipeline.Symbols)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	pipeline *usecase.Pipeline,
	handler xhttp.Handler,
	publisher repository.FeaturePublisher,
	c icache.BytesCache,
) *server.App {
	closer, _ := c.(io.Closer)
	return server.New(cfg, pipeline, handler, publisher, closer)
}
