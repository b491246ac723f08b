package cli

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"quiz-server/internal/app"
	"quiz-server/internal/config"
	"quiz-server/internal/domain"
	"quiz-server/internal/infra/memory"
	pgloader "quiz-server/internal/infra/postgres"
	redistracker "quiz-server/internal/infra/redis"
	"quiz-server/internal/infra/yamlfile"
	"quiz-server/internal/server"
	transport "quiz-server/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(opts *overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	loader, closeLoader, err := newQuestionLoader(ctx, cfg)
	if err != nil {
		return err
	}
	bank, err := app.LoadBank(ctx, loader)
	closeLoader()
	if err != nil {
		return err
	}
	logger.WithField("questions", bank.Count()).Info("question bank loaded")

	var tracker app.SessionTracker = memory.NewSessionTracker()
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		tracker = redistracker.NewSessionTracker(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}

	policy := app.Policy{
		AnswerTimeout:   config.TTLDuration(cfg.Server.AnswerTimeout, 0),
		MaxInvalidLines: cfg.Server.MaxInvalidLines,
	}
	service := app.NewQuizService(bank, tracker, policy, logger)
	pool := server.NewPool(cfg.Server.MaxSessions, cfg.Server.QueueLimit)
	dispatcher := server.NewDispatcher(pool, service, logger)

	listener, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return errors.Wrapf(err, "listen on %s", cfg.ListenAddr())
	}
	acceptor := server.NewAcceptor(listener, dispatcher, cfg.Server.MaxLineBytes, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return acceptor.Serve(gctx)
	})

	if cfg.HTTP.Port != "" {
		httpServer := &http.Server{
			Addr:        cfg.HTTPAddr(),
			Handler:     transport.NewHandler(service, dispatcher, cfg.Server.MaxLineBytes, logger).Routes(),
			ReadTimeout: 15 * time.Second,
		}
		g.Go(func() error {
			logger.WithField("addr", httpServer.Addr).Info("starting http server")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.Wrap(err, "http server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	serveErr := g.Wait()
	logger.Info("shutting down worker pool...")
	drainCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, config.DefaultShutdownTimeout))
	defer cancel()
	if err := pool.Shutdown(drainCtx); err != nil {
		logger.WithError(err).Warn("sessions still running at exit")
	}
	if serveErr != nil {
		return serveErr
	}
	logger.Info("server stopped")
	return nil
}

// newQuestionLoader picks the question source: Postgres, then a YAML file,
// then the built-in list. The returned func releases the source.
func newQuestionLoader(ctx context.Context, cfg config.Config) (app.QuestionLoader, func(), error) {
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect postgres")
		}
		return pgloader.NewQuestionLoader(pool), pool.Close, nil
	case cfg.Bank.Path != "":
		return yamlfile.NewQuestionLoader(cfg.Bank.Path), func() {}, nil
	default:
		return memory.NewStaticQuestionLoader(domain.DefaultQuestions()), func() {}, nil
	}
}
