package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staffrep-bot/internal/api/dto"
	"github.com/spec-kit/staffrep-bot/internal/auth"
	"github.com/spec-kit/staffrep-bot/internal/config"
	"github.com/spec-kit/staffrep-bot/internal/observability"
	"github.com/spec-kit/staffrep-bot/internal/rolecache"
	"github.com/spec-kit/staffrep-bot/internal/service"
	apperrors "github.com/spec-kit/staffrep-bot/pkg/util"
)

// AdminHandler exposes the operator surface: login, cache inspection, and
// manual refresh.
type AdminHandler struct {
	cfg     config.AdminConfig
	tokens  *auth.TokenManager
	cache   *rolecache.Cache
	leaves  *service.LeaveService
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(cfg config.AdminConfig, tokens *auth.TokenManager, cache *rolecache.Cache, leaves *service.LeaveService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{cfg: cfg, tokens: tokens, cache: cache, leaves: leaves, metrics: metrics}
}

// Login handles POST /admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "password required")
	}
	if h.cfg.PasswordHash == "" {
		return apperrors.NewUnauthorized("admin login disabled")
	}
	if err := auth.ComparePassword(h.cfg.PasswordHash, req.Password); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := h.tokens.GenerateToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
	})
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	requests, errors, commands := h.metrics.Snapshot()
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"cache": h.cache.Stats(),
			"metrics": fiber.Map{
				"requests": requests,
				"errors":   errors,
				"commands": commands,
			},
			"generated_at": time.Now().UTC(),
		},
	})
}

// RefreshCache handles POST /admin/cache/refresh.
func (h *AdminHandler) RefreshCache(c *fiber.Ctx) error {
	h.cache.Refresh(c.UserContext())
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": h.cache.Stats(),
	})
}

// PendingLeaves handles GET /admin/leaves/pending.
func (h *AdminHandler) PendingLeaves(c *fiber.Ctx) error {
	pending, err := h.leaves.Pending(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pending})
}
