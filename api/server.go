package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"newsdigest/logger"
	"newsdigest/state"
	"newsdigest/types"
)

// Runner executes one digest run
type Runner interface {
	RunOnce(ctx context.Context) *types.RunReport
}

// Config configures the daemon server
type Config struct {
	Port     string
	State    *state.Manager
	Runner   Runner
	Gatherer prometheus.Gatherer
	Location *time.Location
	Logger   logger.Logger
}

// Server serves the digest API and owns the run schedule
type Server struct {
	state      *state.Manager
	runner     Runner
	gatherer   prometheus.Gatherer
	log        logger.Logger
	httpServer *http.Server
	cron       *cron.Cron
	cronID     cron.EntryID

	// runs use baseCtx so they outlive the request that triggered them
	baseCtx context.Context
	cancel  context.CancelFunc
	runs    sync.WaitGroup
	mu      sync.Mutex
}

// NewServer creates a server; call Start and StartCron to begin serving
func NewServer(cfg Config) *Server {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		state:    cfg.State,
		runner:   cfg.Runner,
		gatherer: gatherer,
		log:      log,
		cron:     cron.New(cron.WithLocation(loc)),
		baseCtx:  ctx,
		cancel:   cancel,
	}
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router constructs the Gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	RegisterHealthRoutes(r)
	RegisterDigestRoutes(r, s)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	return r
}

// Start serves HTTP in the background
func (s *Server) Start() error {
	s.log.Info("Starting digest server", logger.String("addr", s.httpServer.Addr))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", logger.Error(err))
		}
	}()
	return nil
}

// StartCron schedules automatic runs; a tick while a run is active is skipped
func (s *Server) StartCron(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(schedule, func() {
		if !s.Trigger("cron") {
			s.log.Warn("Cron skipped: run already in progress")
			s.state.AddLog("Cron skipped: run already in progress")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cronID = id
	s.cron.Start()
	s.state.SetNextRun(s.cron.Entry(id).Next)
	s.log.Info("Cron job started", logger.String("schedule", schedule))
	return nil
}

// Trigger starts a run asynchronously. It returns false when one is already running.
func (s *Server) Trigger(source string) bool {
	if !s.state.TryStart(source) {
		return false
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		report := s.runner.RunOnce(s.baseCtx)
		s.state.Finish(report)
		s.refreshNextRun()
	}()
	return true
}

func (s *Server) refreshNextRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronID != 0 {
		s.state.SetNextRun(s.cron.Entry(s.cronID).Next)
	}
}

// Wait blocks until in-flight runs finish
func (s *Server) Wait() {
	s.runs.Wait()
}

// Shutdown stops the scheduler and HTTP server, then waits for the active run
// until ctx expires, at which point the run is cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down digest server")

	<-s.cron.Stop().Done()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.cancel()
		<-done
	}
	s.cancel()
	return nil
}
