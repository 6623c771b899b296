package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cses-oj/portal/config"
	"github.com/cses-oj/portal/internal/db"
	"github.com/cses-oj/portal/internal/handlers"
	"github.com/cses-oj/portal/internal/judge"
	"github.com/cses-oj/portal/internal/mq"
	"github.com/cses-oj/portal/internal/services"
	"github.com/cses-oj/portal/internal/storage"
	"github.com/cses-oj/portal/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server wraps the HTTP server, the judge result consumer and their
// shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	consumer   *judge.ResultConsumer
	log        *zap.Logger

	cancelConsumer context.CancelFunc
}

// New constructs a Server with all dependencies wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend, err := newMQBackend(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	queue := mq.New(backend)

	objectBackend, err := newStorageBackend(ctx, cfg)
	if err != nil {
		_ = queue.Close()
		_ = dbConn.Close()
		return nil, err
	}
	objects := storage.NewStorage(objectBackend)
	if err := objects.EnsureBucket(ctx); err != nil {
		_ = queue.Close()
		_ = dbConn.Close()
		return nil, err
	}

	contestRepo := store.NewContestRepository(dbConn)
	submissionRepo := store.NewSubmissionRepository(dbConn)
	userRepo := store.NewUserRepository(dbConn)

	gateway := judge.NewMQGateway(queue, cfg.Judge.JobsChannel, log)

	userService := services.NewUserService(userRepo)
	contestService := services.NewContestService(contestRepo, submissionRepo, userRepo)
	submissionService := services.NewSubmissionService(
		submissionRepo, contestRepo, gateway, objects, cfg.MaxSubmissionSize, log,
	)
	importService := services.NewImportService(contestRepo, objects, log)
	rejudgeService := services.NewRejudgeService(contestRepo, submissionRepo, gateway, log)

	consumer := judge.NewResultConsumer(queue, cfg.Judge.ResultsChannel, submissionService, log)

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = queue.Close()
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	authMiddleware := handlers.RequireAuth(jwtSecret)

	contestHandler := handlers.NewContestHandler(
		contestService, submissionService, importService, rejudgeService,
		userService, cfg.MaxSubmissionSize,
	)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, contestService, userService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/contests", func(r chi.Router) {
		handlers.ContestRouter(r, contestHandler, authMiddleware)
	})
	router.Route("/submissions", func(r chi.Router) {
		handlers.SubmissionRouter(r, submissionHandler, authMiddleware)
	})
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		consumer:   consumer,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start launches the judge result consumer and runs the HTTP server.
func (s *Server) Start() error {
	consumerCtx, cancel := context.WithCancel(context.Background())
	s.cancelConsumer = cancel
	go func() {
		if err := s.consumer.Run(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error("judge result consumer stopped", zap.Error(err))
		}
	}()

	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.cancelConsumer != nil {
		s.cancelConsumer()
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	_ = s.log.Sync()
	return s.httpServer.Close()
}

func newMQBackend(ctx context.Context, cfg config.Config) (mq.Backend, error) {
	switch strings.ToLower(cfg.MQ.Provider) {
	case "", "rabbitmq":
		return mq.NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		return mq.NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq provider %q", cfg.MQ.Provider)
	}
}

func newStorageBackend(ctx context.Context, cfg config.Config) (storage.ObjectStorage, error) {
	switch strings.ToLower(cfg.Storage.Provider) {
	case "", "minio":
		return storage.NewMinioClient(cfg.Minio)
	case "gcs":
		return storage.NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}
