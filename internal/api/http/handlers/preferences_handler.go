package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-monitor/internal/api/dto"
	"github.com/spec-kit/sla-monitor/internal/auth"
	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/notification"
	"github.com/spec-kit/sla-monitor/internal/repository"
	apperrors "github.com/spec-kit/sla-monitor/pkg/util"
)

// PreferencesHandler serves the notification preference surface.
type PreferencesHandler struct {
	resolver *notification.PreferenceResolver
	store    repository.PreferenceRepository
}

// NewPreferencesHandler returns a new handler instance.
func NewPreferencesHandler(resolver *notification.PreferenceResolver, store repository.PreferenceRepository) *PreferencesHandler {
	return &PreferencesHandler{resolver: resolver, store: store}
}

// Get returns the effective preference for a (user, category) pair,
// with defaults and the security override applied.
func (h *PreferencesHandler) Get(c *fiber.Ctx) error {
	userID, category, err := h.authorize(c)
	if err != nil {
		return err
	}

	pref, err := h.resolver.Resolve(c.UserContext(), userID, category)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromEffectivePreference(pref))
}

// Update stores a preference row. Writes to the security category are
// accepted as-is; the read boundary enforces that it stays enabled.
func (h *PreferencesHandler) Update(c *fiber.Ctx) error {
	userID, category, err := h.authorize(c)
	if err != nil {
		return err
	}

	var req dto.UpdatePreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid body", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	pref := &domain.NotificationPreference{
		UserID:    userID,
		Category:  category,
		Email:     req.Email,
		Chat:      req.Chat,
		InApp:     req.InApp,
		Frequency: domain.NotificationFrequency(req.Frequency),
		IsEnabled: req.IsEnabled,
	}
	if err := h.store.Upsert(c.UserContext(), pref); err != nil {
		return err
	}

	effective, err := h.resolver.Resolve(c.UserContext(), userID, category)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromEffectivePreference(effective))
}

func (h *PreferencesHandler) authorize(c *fiber.Ctx) (string, domain.NotificationCategory, error) {
	userID := c.Params("userID")
	category, err := dto.ParseCategory(c.Params("category"))
	if err != nil {
		return "", "", err
	}

	claims := auth.ClaimsFromCtx(c)
	if claims == nil {
		return "", "", apperrors.NewUnauthorized("missing token")
	}
	if claims.Role != auth.RoleAdmin && claims.SubjectID != userID {
		return "", "", apperrors.NewForbidden("cannot access another user's preferences")
	}
	return userID, category, nil
}
