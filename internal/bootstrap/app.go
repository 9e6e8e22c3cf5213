package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"docchat/internal/ai"
	"docchat/internal/app"
	"docchat/internal/cache"
	"docchat/internal/config"
	"docchat/internal/logger"
	rabbitmqClient "docchat/internal/platform/rabbitmq"
	redisClient "docchat/internal/platform/redis"
	sqliteClient "docchat/internal/platform/sqlite"
	"docchat/internal/store"
	"docchat/internal/worker"
)

// App wires the configured backends and the QA service together.
// Redis and RabbitMQ are optional; their fields stay nil when disabled.
type App struct {
	Config       *config.Config
	SQLite       *sqliteClient.KV
	Store        *store.VectorStore
	Redis        *redis.Client
	MQConn       *amqp.Connection
	Publisher    *rabbitmqClient.IngestPublisher
	IngestWorker *worker.IngestWorker
	Service      *app.QAService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger.Init(cfg.App.Env)

	a := &App{Config: cfg, StartedAt: time.Now()}

	kv, err := a.openKV(cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store.NewVectorStore(kv)

	client := ai.NewOpenAICompatibleClient()
	embedder := ai.NewEmbeddingAdapter(client, ai.EmbeddingConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.EmbeddingModel,
	})
	generator := ai.NewChatAdapter(client, ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})

	var answers *cache.AnswerCache
	if cfg.Redis.Addr != "" {
		redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.Redis = redisCli
		answers = cache.NewAnswerCache(redisCli, time.Duration(cfg.Redis.AnswerTTLSeconds)*time.Second)
	}

	a.Service = app.NewQAService(cfg, a.Store, embedder, generator, answers)

	if cfg.RabbitMQ.URL != "" {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		a.MQConn = mqConn
		a.Publisher = rabbitmqClient.NewIngestPublisher(mqConn, cfg.RabbitMQ.IngestQueue)
		a.IngestWorker = worker.NewIngestWorker(mqConn, a.Service, cfg.RabbitMQ.IngestQueue)
		if err := a.IngestWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start ingest worker failed: %w", err)
		}
	}

	return a, nil
}

func (a *App) openKV(cfg *config.Config) (store.KV, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return store.NewMemoryKV(), nil
	case "sqlite":
		kv, err := sqliteClient.New(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.SQLite = kv
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.SQLite != nil {
		if err := a.SQLite.Close(); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
