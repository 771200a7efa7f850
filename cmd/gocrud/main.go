// gocrud 演示服务：把博客示例模型（authors/posts/comments）暴露为 RESTful CRUD 接口。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"gocrud/app/api"
	"gocrud/config"
	dbbasic "gocrud/data/db/basic"
	"gocrud/data/orm"
	ormbasic "gocrud/data/orm/basic"
	"gocrud/data/orm/repo"
	"gocrud/domain/crud"
	"gocrud/http/basic"
	"gocrud/internal/blog"
	"gocrud/logging"
	"gocrud/messaging"
	"gocrud/messaging/transport/memory"
	"gocrud/messaging/transport/natsjetstream"
	"gocrud/messaging/transport/redisstreams"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	seed := flag.Bool("seed", false, "create the demo schema and insert sample rows (sqlite only)")
	flag.Parse()

	if err := run(*configPath, *seed); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, seed bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	zapLogger, err := logging.NewZapProduction(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	logging.SetLogger(zapLogger)
	logger := zapLogger.WithFields(logging.Component("main"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := dbbasic.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if cfg.Database.DialectName() == "sqlite" {
		if err := blog.EnsureTables(ctx, database); err != nil {
			return fmt.Errorf("ensure tables: %w", err)
		}
		if seed {
			if err := blog.Seed(ctx, database); err != nil {
				logger.Warn(ctx, "seed skipped", logging.Error(err))
			}
		}
	}

	publisher, err := newPublisher(cfg.Events, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	engine := ormbasic.New(database)
	metas := blog.NewMetas()
	serviceConfig := func(allowed map[string]crud.RelationTarget) crud.Config {
		return crud.Config{
			AllowedRelations: allowed,
			DefaultLimit:     cfg.Query.DefaultLimit,
			MaxLimit:         cfg.Query.MaxLimit,
			Publisher:        publisher,
			Logger:           zapLogger,
		}
	}

	posts := crud.NewService[blog.Post](
		repo.NewRepository[blog.Post](engine, metas.Posts, repo.WithLogger(zapLogger)),
		serviceConfig(map[string]crud.RelationTarget{
			"author":   crud.Named("author"),
			"comments": crud.Named("comments"),
			"tags":     crud.Named("tags"),
			"approvedComments": crud.Computed("comments", func() orm.Predicate {
				return orm.Where("body", "!=", "spam")
			}),
		}),
	)
	authors := crud.NewService[blog.Author](
		repo.NewRepository[blog.Author](engine, metas.Authors, repo.WithLogger(zapLogger)),
		serviceConfig(map[string]crud.RelationTarget{"posts": crud.Named("posts")}),
	)
	comments := crud.NewService[blog.Comment](
		repo.NewRepository[blog.Comment](engine, metas.Comments, repo.WithLogger(zapLogger)),
		serviceConfig(map[string]crud.RelationTarget{"post": crud.Named("post")}),
	)

	server := basic.NewHTTPServer(cfg.HTTP, zapLogger)
	server.Use(basic.RequestID(), basic.AccessLog(zapLogger), basic.Recovery(zapLogger))
	group := server.Group("/api")
	if err := api.RegisterResources(group,
		api.NewResource[blog.Post]("/posts", posts, nil),
		api.NewResource[blog.Author]("/authors", authors, nil),
		api.NewResource[blog.Comment]("/comments", comments, nil),
	); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(cfg.HTTP.Addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Stop(shutdownCtx)
}

func newPublisher(cfg config.EventsConfig, logger logging.Logger) (messaging.IPublisher, error) {
	switch cfg.Transport {
	case config.TransportRedis:
		return redisstreams.NewPublisher(redisstreams.Config{
			Addr:         cfg.Redis.Addr,
			Username:     cfg.Redis.Username,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			StreamPrefix: cfg.Redis.StreamPrefix,
			MaxLen:       cfg.Redis.MaxLen,
			Logger:       logger,
		})
	case config.TransportNATS:
		return natsjetstream.NewPublisher(natsjetstream.Config{
			URL:           cfg.NATS.URL,
			Stream:        cfg.NATS.Stream,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
			MaxAge:        cfg.NATS.MaxAge,
			Logger:        logger,
		}), nil
	case config.TransportMemory:
		publisher := memory.NewPublisher(0)
		publisher.Subscribe(messaging.WildcardType, func(ctx context.Context, m messaging.IMessage) error {
			logger.Debug(ctx, "change event", logging.String("type", m.GetType()), logging.String("id", m.GetID()))
			return nil
		})
		return publisher, nil
	default:
		return messaging.NoopPublisher{}, nil
	}
}
