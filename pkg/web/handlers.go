package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-focus/pkg/analysis"
	"github.com/teslashibe/go-focus/pkg/monitor"
)

// TaskRequest is the body of /api/task and /api/timer/start.
type TaskRequest struct {
	TaskID string `json:"taskId"`
}

// ActionResponse reports whether a control request changed anything.
// Requests that do not apply in the current state are not errors.
type ActionResponse struct {
	OK    bool             `json:"ok"`
	State monitor.Snapshot `json:"state"`
}

// MetricsResponse is the body of /api/metrics.
type MetricsResponse struct {
	Analysis analysis.MetricsSnapshot `json:"analysis"`
	Clients  int                      `json:"clients"`
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Snapshot())
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	return c.JSON(MetricsResponse{
		Analysis: s.ctrl.Metrics(),
		Clients:  s.Clients(),
	})
}

func (s *Server) handleSelectTask(c *fiber.Ctx) error {
	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	s.ctrl.SelectTask(req.TaskID)
	return s.respond(c, true)
}

func (s *Server) handleTimer(c *fiber.Ctx) error {
	var ok bool
	switch c.Params("action") {
	case "start":
		var req TaskRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
			}
		}
		ok = s.ctrl.StartTimer(req.TaskID)
	case "pause":
		ok = s.ctrl.PauseTimer()
	case "resume":
		ok = s.ctrl.ResumeTimer()
	case "stop":
		ok = s.ctrl.StopTimer()
	default:
		return fiber.ErrNotFound
	}
	return s.respond(c, ok)
}

func (s *Server) handleDetection(c *fiber.Ctx) error {
	switch c.Params("action") {
	case "start":
		if err := s.ctrl.StartDetection(); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
	case "stop":
		s.ctrl.StopDetection()
	default:
		return fiber.ErrNotFound
	}
	return s.respond(c, true)
}

func (s *Server) handleMonitoring(c *fiber.Ctx) error {
	switch c.Params("action") {
	case "enable":
		if err := s.ctrl.EnableMonitoring(); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
	case "disable":
		s.ctrl.DisableMonitoring()
	default:
		return fiber.ErrNotFound
	}
	return s.respond(c, true)
}

// respond answers 200 when the request applied and 409 when it was a no-op.
func (s *Server) respond(c *fiber.Ctx, ok bool) error {
	status := fiber.StatusOK
	if !ok {
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(ActionResponse{OK: ok, State: s.ctrl.Snapshot()})
}
