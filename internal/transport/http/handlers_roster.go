package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"northstar/internal/roster"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/httputil"
	"northstar/pkg/requestcontext"
)

// RosterService is the roster surface the transport layer consumes.
type RosterService interface {
	Create(ctx context.Context, entity *roster.Entity) (*roster.Entity, error)
	Get(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (*roster.Entity, error)
	MarkExited(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (*roster.Entity, error)
}

type rosterHandler struct {
	roster RosterService
	logger *slog.Logger
}

func newRosterHandler(service RosterService, logger *slog.Logger) *rosterHandler {
	return &rosterHandler{roster: service, logger: logger}
}

func (h *rosterHandler) register(r chi.Router) {
	r.Route("/roster/{entityType}", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/{entityID}", h.handleGet)
		r.Post("/{entityID}/exit", h.handleExit)
	})
}

type entityResponse struct {
	ID          string          `json:"id"`
	EntityType  string          `json:"entity_type"`
	DisplayName string          `json:"display_name"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	ExitedAt    *time.Time      `json:"exited_at,omitempty"`
}

func toEntityResponse(entity *roster.Entity) entityResponse {
	return entityResponse{
		ID:          entity.ID,
		EntityType:  string(entity.Type),
		DisplayName: entity.DisplayName,
		Attributes:  entity.Attributes,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
		ExitedAt:    entity.ExitedAt,
	}
}

type createEntityRequest struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

func (h *rosterHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entityType, err := id.ParseEntityType(chi.URLParam(r, "entityType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req createEntityRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	entity, err := h.roster.Create(ctx, &roster.Entity{
		ID:          req.ID,
		TenantID:    tenantID,
		Type:        entityType,
		DisplayName: req.DisplayName,
		Attributes:  req.Attributes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create roster entity rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEntityResponse(entity))
}

func (h *rosterHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entityType, err := id.ParseEntityType(chi.URLParam(r, "entityType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entity, err := h.roster.Get(ctx, tenantID, entityType, chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEntityResponse(entity))
}

func (h *rosterHandler) handleExit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entityType, err := id.ParseEntityType(chi.URLParam(r, "entityType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entity, err := h.roster.MarkExited(ctx, tenantID, entityType, chi.URLParam(r, "entityID"))
	if err != nil {
		h.logger.WarnContext(ctx, "mark exited rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEntityResponse(entity))
}
