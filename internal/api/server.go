// Package api implements the HTTP surface (C7): submit a run, poll or
// stream its progress, export a completed run's CSV, and expose Prometheus
// metrics via gin, cors, websocket and the Prometheus client.
package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/casperlundberg/edge-offload-simulator/internal/database"
	persist "github.com/casperlundberg/edge-offload-simulator/internal/simulation"
	"github.com/casperlundberg/edge-offload-simulator/pkg/export"
	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
	"github.com/casperlundberg/edge-offload-simulator/pkg/simulation"
)

var (
	runsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_offload",
		Subsystem: "api",
		Name:      "runs_submitted_total",
		Help:      "Total simulation runs accepted via POST /simulations.",
	})
	runsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edge_offload",
		Subsystem: "api",
		Name:      "runs_completed_total",
		Help:      "Total simulation runs that reached a terminal status, by status.",
	}, []string{"status"})
	runsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "edge_offload",
		Subsystem: "api",
		Name:      "runs_active",
		Help:      "Number of runs currently executing.",
	})
	streamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "edge_offload",
		Subsystem: "api",
		Name:      "stream_subscribers",
		Help:      "Number of websocket clients currently attached to a run's progress stream.",
	})
	slotProcessingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "edge_offload",
		Subsystem: "api",
		Name:      "slot_processing_seconds",
		Help:      "Wall-clock time between consecutive on_progress callbacks for a run.",
		Buckets:   prometheus.DefBuckets,
	})
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// runHandle is the in-memory record of one submitted run: the latest
// snapshot the driver has reported, plus whatever websocket clients are
// currently subscribed to its updates. The Driver itself is stateless
// between calls to Run, so something has to hold the most-recent
// SimulationState for GET/stream handlers to read.
type runHandle struct {
	mu    sync.RWMutex
	state models.SimulationState
	subs  map[chan models.SimulationState]struct{}
}

func newRunHandle(initial models.SimulationState) *runHandle {
	return &runHandle{
		state: initial,
		subs:  make(map[chan models.SimulationState]struct{}),
	}
}

func (h *runHandle) update(s models.SimulationState) {
	h.mu.Lock()
	h.state = s
	subs := make([]chan models.SimulationState, 0, len(h.subs))
	for ch := range h.subs {
		subs = append(subs, ch)
	}
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- s:
		default:
			// Slow subscriber: drop the frame rather than block the run.
		}
	}
}

func (h *runHandle) snapshot() models.SimulationState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *runHandle) subscribe() (chan models.SimulationState, func()) {
	ch := make(chan models.SimulationState, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	streamSubscribers.Inc()

	unsubscribe := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		streamSubscribers.Dec()
	}
	return ch, unsubscribe
}

// Server is the HTTP API over the simulation driver. repo is optional: a
// nil repo disables persistence, and runs stay purely in-memory for the
// life of the process.
type Server struct {
	router *gin.Engine
	repo   *database.Repository

	mu   sync.RWMutex
	runs map[string]*runHandle
}

// NewServer builds a Server and wires its routes. Pass a nil repo to run
// without persistence.
func NewServer(repo *database.Repository) *Server {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router: router,
		repo:   repo,
		runs:   make(map[string]*runHandle),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	v1.POST("/simulations", s.createSimulation)
	v1.GET("/simulations/:id", s.getSimulation)
	v1.GET("/simulations/:id/stream", s.streamSimulation)
	v1.GET("/simulations/:id/export.csv", s.exportSimulationCSV)
}

// Run starts the HTTP server and blocks until it exits.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now()})
}

// createSimulation accepts an ExperimentConfig, validates it, and starts
// the run in the background. It returns immediately with the assigned run
// id; progress is available via GET and the websocket stream.
func (s *Server) createSimulation(c *gin.Context) {
	var cfg models.ExperimentConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := cfg.Validate(); errs.HasErrors() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}

	driver := simulation.New(cfg)
	handle := newRunHandle(models.SimulationState{
		RunID:      driver.ID(),
		Status:     models.StatusRunning,
		TotalSlots: cfg.TotalSlots,
	})

	s.mu.Lock()
	s.runs[driver.ID()] = handle
	s.mu.Unlock()

	var collector *persist.DBCollector
	if s.repo != nil {
		var err error
		collector, err = persist.NewDBCollector(s.repo, cfg, driver.ID())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	runsSubmitted.Inc()
	runsActive.Inc()
	go s.executeRun(driver, handle, collector)

	c.JSON(http.StatusAccepted, gin.H{"run_id": driver.ID(), "status": string(models.StatusRunning)})
}

func (s *Server) executeRun(driver *simulation.Driver, handle *runHandle, collector *persist.DBCollector) {
	defer runsActive.Dec()

	lastProgress := time.Now()
	result := driver.Run(simulation.RunOptions{
		OnProgress: func(state models.SimulationState) {
			now := time.Now()
			slotProcessingSeconds.Observe(now.Sub(lastProgress).Seconds())
			lastProgress = now

			handle.update(state)
			if collector != nil {
				if err := collector.CollectProgress(state); err != nil {
					log.Printf("run %s: persisting progress: %v", state.RunID, err)
				}
			}
		},
		OnOptimizerLog: func(sensorID string, entry models.OptimizerLogEntry) {
			if collector != nil {
				if err := collector.CollectOptimizerLog(entry); err != nil {
					log.Printf("run %s: persisting optimizer log: %v", driver.ID(), err)
				}
			}
		},
	})

	handle.update(result)
	if collector != nil {
		if err := collector.CollectProgress(result); err != nil {
			log.Printf("run %s: persisting final state: %v", result.RunID, err)
		}
	}
	runsCompleted.WithLabelValues(string(result.Status)).Inc()
}

func (s *Server) lookupRun(id string) (*runHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.runs[id]
	return h, ok
}

func (s *Server) getSimulation(c *gin.Context) {
	handle, ok := s.lookupRun(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, handle.snapshot())
}

// streamSimulation upgrades to a websocket, pushes the current snapshot and
// then each subsequent progress snapshot until the run reaches a terminal
// status or a write to the client fails. Frames are dropped for a client
// that falls behind (see runHandle.update).
func (s *Server) streamSimulation(c *gin.Context) {
	handle, ok := s.lookupRun(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	updates, unsubscribe := handle.subscribe()
	defer unsubscribe()

	initial := handle.snapshot()
	if err := conn.WriteJSON(initial); err != nil {
		return
	}
	if initial.Status != models.StatusRunning {
		return
	}

	for state := range updates {
		if err := conn.WriteJSON(state); err != nil {
			return
		}
		if state.Status != models.StatusRunning {
			return
		}
	}
}

// exportSimulationCSV streams the CSV form of a run's current state,
// whatever slots it has accumulated so far.
func (s *Server) exportSimulationCSV(c *gin.Context) {
	handle, ok := s.lookupRun(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	state := handle.snapshot()
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=\""+state.RunID+".csv\"")
	if err := export.WriteCSV(c.Writer, state); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
