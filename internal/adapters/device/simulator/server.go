package simulator

import (
	"context"
	"log/slog"
	"time"

	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/ports"

	"github.com/gofiber/fiber/v2"
)

// Wire types of the device agent protocol, shared with httpdevice.
type (
	USSDRequest struct {
		Code    string `json:"code"`
		SimSlot int    `json:"simSlot"`
	}

	// USSDReply carries exactly one terminal session event.
	USSDReply struct {
		Status      string `json:"status"` // "response" or "failure"
		Response    string `json:"response,omitempty"`
		FailureCode int    `json:"failureCode,omitempty"`
	}

	DialRequest struct {
		Action string `json:"action"`
		URI    string `json:"uri"`
	}

	Subscription struct {
		SlotIndex   int    `json:"slotIndex"`
		CarrierName string `json:"carrierName"`
		Number      string `json:"number"`
	}

	Info struct {
		APILevel int `json:"apiLevel"`
	}
)

const (
	ReplyResponse = "response"
	ReplyFailure  = "failure"
)

// DefaultSessionTimeout bounds how long a silent session holds its HTTP
// exchange. It matches the gateway client's session timeout.
const DefaultSessionTimeout = 2 * time.Minute

// Server exposes a Device over HTTP.
type Server struct {
	dev *Device
	log *slog.Logger

	// SessionTimeout ends a session the carrier never answers.
	SessionTimeout time.Duration
}

// NewServer wraps dev.
func NewServer(dev *Device, log *slog.Logger) *Server {
	return &Server{dev: dev, log: log, SessionTimeout: DefaultSessionTimeout}
}

// Register mounts the device agent routes.
func (s *Server) Register(router fiber.Router) {
	router.Get("/info", s.info)
	router.Post("/ussd", s.ussd)
	router.Get("/dial/handlers", s.canDial)
	router.Post("/dial", s.dial)
	router.Get("/subscriptions", s.subscriptions)
	router.Get("/permissions", s.permissions)
	router.Post("/permissions/request", s.requestPermissions)
}

func (s *Server) info(c *fiber.Ctx) error {
	return c.JSON(Info{APILevel: s.dev.APILevel()})
}

// ussd holds the HTTP exchange open until the session ends. A silent code
// keeps it open for SessionTimeout.
func (s *Server) ussd(c *fiber.Ctx) error {
	var req USSDRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code is required"})
	}

	replies := make(chan USSDReply, 1)
	err := s.dev.SendUSSDRequest(c.Context(), req.SimSlot, req.Code, ports.USSDCallback{
		OnResponse: func(_, response string) {
			replies <- USSDReply{Status: ReplyResponse, Response: response}
		},
		OnFailure: func(_ string, failureCode int) {
			replies <- USSDReply{Status: ReplyFailure, FailureCode: failureCode}
		},
	})
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	s.log.Info("simulated ussd session", "code", req.Code, "sim_slot", req.SimSlot)

	timer := time.NewTimer(s.SessionTimeout)
	defer timer.Stop()

	select {
	case reply := <-replies:
		return c.JSON(reply)
	case <-timer.C:
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "session never ended"})
	}
}

func (s *Server) canDial(c *fiber.Ctx) error {
	intent := ports.DialIntent{Action: c.Query("action"), URI: c.Query("uri")}
	return c.JSON(fiber.Map{"canHandle": s.dev.CanHandle(intent)})
}

func (s *Server) dial(c *fiber.Ctx) error {
	var req DialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := s.dev.Launch(ports.DialIntent{Action: req.Action, URI: req.URI}); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	s.log.Info("simulated dialer launched", "uri", req.URI)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) subscriptions(c *fiber.Ctx) error {
	subs, err := s.dev.ActiveSubscriptions(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	out := make([]Subscription, 0, len(subs))
	for _, sub := range subs {
		out = append(out, Subscription{SlotIndex: sub.SlotIndex, CarrierName: sub.CarrierName, Number: sub.Number})
	}
	return c.JSON(out)
}

func (s *Server) permissions(c *fiber.Ctx) error {
	out := make(map[domain.Permission]bool, len(domain.RequiredPermissions))
	for _, p := range domain.RequiredPermissions {
		out[p] = s.dev.Granted(p)
	}
	return c.JSON(out)
}

// requestPermissions answers once the simulated user has decided.
func (s *Server) requestPermissions(c *fiber.Ctx) error {
	decided := make(chan struct{})
	if err := s.dev.RequestPermissions(context.Background(), domain.RequiredPermissions, func() { close(decided) }); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	<-decided
	return s.permissions(c)
}
