// Package web exposes the focus session over HTTP and a websocket event
// stream.
package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/analysis"
	"github.com/teslashibe/go-focus/pkg/hub"
	"github.com/teslashibe/go-focus/pkg/monitor"
)

// Controller is the session surface the API drives. *monitor.Monitor
// implements it.
type Controller interface {
	Snapshot() monitor.Snapshot
	Metrics() analysis.MetricsSnapshot

	SelectTask(taskID string)
	StartTimer(taskID string) bool
	PauseTimer() bool
	ResumeTimer() bool
	StopTimer() bool

	StartDetection() error
	StopDetection()
	EnableMonitoring() error
	DisableMonitoring()
}

// Server is the HTTP API server.
type Server struct {
	app    *fiber.App
	addr   string
	ctrl   Controller
	events *hub.Hub
	logger *slog.Logger
}

// NewServer creates the API server listening on addr once started.
func NewServer(addr string, ctrl Controller) *Server {
	s := &Server{
		addr:   addr,
		ctrl:   ctrl,
		events: hub.New("events"),
		logger: log.Component("web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-focus",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/metrics", s.handleMetrics)
	api.Post("/task", s.handleSelectTask)
	api.Post("/timer/:action", s.handleTimer)
	api.Post("/detection/:action", s.handleDetection)
	api.Post("/monitoring/:action", s.handleMonitoring)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// HeartbeatInterval is how often subscribers get a state event while
// nothing changes, so elapsed times stay live.
const HeartbeatInterval = time.Second

// Start runs the event hub and serves until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	go s.events.Run(ctx)
	go s.heartbeat(ctx)
	s.logger.Info("api listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// PublishState broadcasts a session snapshot.
func (s *Server) PublishState(snap monitor.Snapshot) {
	s.publish(hub.EventState, snap)
}

// PublishAnalysis broadcasts one analysis result.
func (s *Server) PublishAnalysis(r analysis.Result) {
	s.publish(hub.EventAnalysis, r)
}

// PublishNoFace broadcasts the start of a sustained absence.
func (s *Server) PublishNoFace() {
	s.publish(hub.EventNoFace, nil)
}

func (s *Server) publish(t hub.EventType, v any) {
	if err := s.events.Publish(t, v); err != nil {
		s.logger.Warn("event not published", "type", t, "error", err)
	}
}

func (s *Server) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.events.ClientCount() > 0 {
				s.PublishState(s.ctrl.Snapshot())
			}
		}
	}
}

// Clients returns the number of websocket subscribers.
func (s *Server) Clients() int {
	return s.events.ClientCount()
}

func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.events, c)

	// current state first so late joiners need not wait for a change
	if data, err := hub.Encode(hub.EventState, time.Now(), s.ctrl.Snapshot()); err == nil {
		c.WriteMessage(websocket.TextMessage, data)
	}
	client.Run()
}
