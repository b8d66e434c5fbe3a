package transport

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"golang-ussd-gateway/internal/app"
	"golang-ussd-gateway/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handler holds all HTTP handlers for the USSD gateway.
type Handler struct {
	svc    *app.USSDService
	bridge *Bridge
	log    *slog.Logger
}

// NewHandler wires up a Handler with its dependencies.
func NewHandler(svc *app.USSDService, log *slog.Logger) *Handler {
	return &Handler{svc: svc, bridge: NewBridge(svc), log: log}
}

// Register mounts all routes onto the given Fiber router.
func (h *Handler) Register(router fiber.Router) {
	router.Post("/ussd/send", h.SendRequest)
	router.Post("/ussd/jobs", h.EnqueueJob)
	router.Get("/sim", h.GetSubscriptionInfo)
	router.Get("/permissions", h.CheckPermissionStatus)
	router.Post("/permissions/request", h.RequestPermissions)
	router.Post("/plugin/:method", h.Call)

	router.Get("/codes", h.ListCodes)
	router.Post("/codes", h.AddCode)
	router.Delete("/codes/:id", h.DeleteCode)
	router.Post("/codes/:id/execute", h.ExecuteCode)
	router.Post("/codes/:id/jobs", h.EnqueueCode)

	router.Get("/executions", h.ListExecutions)
}

// respondError maps rejections onto HTTP statuses.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, domain.ErrCodeRequired),
		errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrUnknownMethod):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrPermissionDenied):
		status, msg = fiber.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrCodeNotFound):
		status, msg = fiber.StatusNotFound, domain.ErrCodeNotFound.Error()
	case errors.Is(err, app.ErrQueueUnavailable):
		status, msg = fiber.StatusServiceUnavailable, err.Error()
	default:
		h.log.Error("request failed", "path", c.Path(), "err", err)
	}

	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// ── USSD ──────────────────────────────────────────────────────────────────────

type sendRequest struct {
	Code    string `json:"code"`
	SimSlot *int   `json:"simSlot"`
}

// SendRequest dispatches a USSD code and waits for its outcome.
//
// POST /ussd/send
// Body: { "code": "*100#", "simSlot": 0 }
func (h *Handler) SendRequest(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	res, err := h.svc.SendRequest(c.UserContext(), app.SendRequestInput{Code: req.Code, SimSlot: req.SimSlot})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// EnqueueJob queues a USSD code for the worker.
//
// POST /ussd/jobs
// Body: { "code": "*100#", "simSlot": 0 }
func (h *Handler) EnqueueJob(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	job, err := h.svc.EnqueueJob(c.UserContext(), app.SendRequestInput{Code: req.Code, SimSlot: req.SimSlot})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"jobId": job.ID.String()})
}

// GetSubscriptionInfo reports the subscription bound to a SIM slot.
//
// GET /sim?simSlot=0
func (h *Handler) GetSubscriptionInfo(c *fiber.Ctx) error {
	var slot *int
	if raw := c.Query("simSlot"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "simSlot must be an integer"})
		}
		slot = &n
	}
	return c.JSON(h.svc.GetSubscriptionInfo(c.UserContext(), slot))
}

// CheckPermissionStatus reports whether the telephony permissions are granted.
//
// GET /permissions
func (h *Handler) CheckPermissionStatus(c *fiber.Ctx) error {
	return c.JSON(h.svc.CheckPermissionStatus())
}

// RequestPermissions prompts for the telephony permissions and reports the
// result once the user decides.
//
// POST /permissions/request
func (h *Handler) RequestPermissions(c *fiber.Ctx) error {
	return c.JSON(h.svc.RequestPermissions(c.UserContext()))
}

// Call invokes a bridge method with the JSON body as named arguments.
//
// POST /plugin/:method
// Body: { "code": "*100#", "simSlot": 1 }
func (h *Handler) Call(c *fiber.Ctx) error {
	args := Args{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&args); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	res, err := h.bridge.Call(c.UserContext(), c.Params("method"), args)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// ── Catalog ───────────────────────────────────────────────────────────────────

type codeRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Operator    string `json:"operator"`
	SimSlot     int    `json:"simSlot"`
}

type codeResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Code           string     `json:"code"`
	Type           string     `json:"type"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category,omitempty"`
	Operator       string     `json:"operator,omitempty"`
	SimSlot        int        `json:"simSlot"`
	Status         string     `json:"status"`
	Result         string     `json:"result,omitempty"`
	LastExecutedAt *time.Time `json:"lastExecutedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func toCodeResponse(c domain.Code) codeResponse {
	return codeResponse{
		ID:             c.ID.String(),
		Name:           c.Name,
		Code:           c.Code,
		Type:           string(c.Type),
		Description:    c.Description,
		Category:       c.Category,
		Operator:       c.Operator,
		SimSlot:        c.SimSlot,
		Status:         string(c.Status),
		Result:         c.Result,
		LastExecutedAt: c.LastExecutedAt,
		CreatedAt:      c.CreatedAt,
	}
}

// ListCodes returns the saved USSD codes.
//
// GET /codes
func (h *Handler) ListCodes(c *fiber.Ctx) error {
	codes, err := h.svc.ListCodes(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}

	out := make([]codeResponse, 0, len(codes))
	for _, code := range codes {
		out = append(out, toCodeResponse(code))
	}
	return c.JSON(out)
}

// AddCode saves a USSD code to the catalog.
//
// POST /codes
// Body: { "name": "...", "code": "*100#", "type": "ACTIVATION"|"TOPUP", ... }
func (h *Handler) AddCode(c *fiber.Ctx) error {
	var req codeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	code, err := h.svc.AddCode(c.UserContext(), domain.NewCodeParams{
		Name:        req.Name,
		Code:        req.Code,
		Type:        domain.CodeType(req.Type),
		Description: req.Description,
		Category:    req.Category,
		Operator:    req.Operator,
		SimSlot:     req.SimSlot,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCodeResponse(code))
}

// DeleteCode removes a saved USSD code.
//
// DELETE /codes/:id
func (h *Handler) DeleteCode(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id must be a valid UUID"})
	}
	if err := h.svc.DeleteCode(c.UserContext(), id); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteCode dispatches a saved USSD code.
//
// POST /codes/:id/execute
func (h *Handler) ExecuteCode(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id must be a valid UUID"})
	}

	res, err := h.svc.ExecuteCode(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// EnqueueCode queues a saved USSD code for a worker.
//
// POST /codes/:id/jobs
func (h *Handler) EnqueueCode(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id must be a valid UUID"})
	}

	job, err := h.svc.EnqueueCode(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"jobId": job.ID.String(), "codeId": id.String()})
}

// ── History ───────────────────────────────────────────────────────────────────

type executionResponse struct {
	ID         string    `json:"id"`
	CodeID     string    `json:"codeId,omitempty"`
	Code       string    `json:"code"`
	SimSlot    int       `json:"simSlot"`
	Strategy   string    `json:"strategy"`
	Success    bool      `json:"success"`
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"durationMs"`
	ExecutedAt time.Time `json:"executedAt"`
}

// ListExecutions returns recent USSD executions.
//
// GET /executions?limit=50
func (h *Handler) ListExecutions(c *fiber.Ctx) error {
	execs, err := h.svc.ListExecutions(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return h.respondError(c, err)
	}

	out := make([]executionResponse, 0, len(execs))
	for _, e := range execs {
		r := executionResponse{
			ID:         e.ID.String(),
			Code:       e.Code,
			SimSlot:    e.SimSlot,
			Strategy:   e.Strategy,
			Success:    e.Success,
			Result:     e.Result,
			Error:      e.Error,
			DurationMS: e.Duration.Milliseconds(),
			ExecutedAt: e.ExecutedAt,
		}
		if e.CodeID != nil {
			r.CodeID = e.CodeID.String()
		}
		out = append(out, r)
	}
	return c.JSON(out)
}
