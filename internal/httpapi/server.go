package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"taskmanager/internal/config"
	"taskmanager/internal/db/models"
)

// TaskService is what the handlers need from the task layer.
type TaskService interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, title string, description *string) (*models.Task, error)
	Get(ctx context.Context, id int64) (*models.Task, error)
	Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

type Server struct {
	tasks         TaskService
	log           *logrus.Logger
	router        *gin.Engine
	exposeDetails bool
	readyTimeout  time.Duration
}

type Option func(*Server)

// WithErrorDetails adds the underlying error text to 500 responses.
func WithErrorDetails(on bool) Option {
	return func(s *Server) { s.exposeDetails = on }
}

func WithReadyTimeout(d time.Duration) Option {
	return func(s *Server) { s.readyTimeout = d }
}

func NewServer(tasks TaskService, log *logrus.Logger, opts ...Option) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		tasks:        tasks,
		log:          log,
		readyTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(requestID(), requestLogger(log), metrics(), recovery(log))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	})

	router.GET("/healthz", s.healthz)
	router.GET("/readyz", s.readyz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tasksGroup := router.Group("/tasks")
	{
		tasksGroup.GET("", s.listTasks)
		tasksGroup.POST("", s.createTask)
		tasksGroup.GET("/:id", s.getTask)
		tasksGroup.PUT("/:id", s.updateTask)
		tasksGroup.DELETE("/:id", s.deleteTask)
	}

	s.router = router
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg config.Server) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", cfg.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
