package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"northstar/internal/legalhold"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/httputil"
	"northstar/pkg/requestcontext"
)

// HoldService is the legal hold surface the transport layer consumes.
type HoldService interface {
	Apply(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID, caseNumber, reason, actor string) (*legalhold.Hold, error)
	Release(ctx context.Context, holdID id.HoldID, actor, reason string) (*legalhold.Hold, error)
	HasActiveHold(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (bool, error)
	ListActive(ctx context.Context, tenantID id.TenantID) ([]legalhold.Hold, error)
}

type holdHandler struct {
	holds  HoldService
	logger *slog.Logger
}

func newHoldHandler(service HoldService, logger *slog.Logger) *holdHandler {
	return &holdHandler{holds: service, logger: logger}
}

func (h *holdHandler) register(r chi.Router) {
	r.Route("/legal-holds", func(r chi.Router) {
		r.Post("/", h.handleApply)
		r.Get("/", h.handleListActive)
		r.Get("/check", h.handleCheck)
		r.Post("/{holdID}/release", h.handleRelease)
	})
}

type holdResponse struct {
	ID          string     `json:"id"`
	EntityType  string     `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	CaseNumber  string     `json:"case_number"`
	Reason      string     `json:"reason"`
	AppliedBy   string     `json:"applied_by"`
	AppliedAt   time.Time  `json:"applied_at"`
	ReleasedBy  string     `json:"released_by,omitempty"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
	ReleaseNote string     `json:"release_note,omitempty"`
	Active      bool       `json:"active"`
}

func toHoldResponse(hold *legalhold.Hold) holdResponse {
	return holdResponse{
		ID:          hold.ID.String(),
		EntityType:  string(hold.EntityType),
		EntityID:    hold.EntityID,
		CaseNumber:  hold.CaseNumber,
		Reason:      hold.Reason,
		AppliedBy:   hold.AppliedBy,
		AppliedAt:   hold.AppliedAt,
		ReleasedBy:  hold.ReleasedBy,
		ReleasedAt:  hold.ReleasedAt,
		ReleaseNote: hold.ReleaseNote,
		Active:      hold.IsActive(),
	}
}

type applyHoldRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	CaseNumber string `json:"case_number"`
	Reason     string `json:"reason"`
}

func (h *holdHandler) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req applyHoldRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	hold, err := h.holds.Apply(ctx, tenantID, id.EntityType(req.EntityType), req.EntityID, req.CaseNumber, req.Reason, requestcontext.ActorID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "apply legal hold rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toHoldResponse(hold))
}

type releaseHoldRequest struct {
	Reason string `json:"reason"`
}

func (h *holdHandler) handleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := requireTenant(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}
	holdID, err := id.ParseHoldID(chi.URLParam(r, "holdID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req releaseHoldRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	hold, err := h.holds.Release(ctx, holdID, requestcontext.ActorID(ctx), req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "release legal hold rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHoldResponse(hold))
}

func (h *holdHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	active, err := h.holds.HasActiveHold(ctx, tenantID,
		id.EntityType(r.URL.Query().Get("entity_type")),
		r.URL.Query().Get("entity_id"),
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (h *holdHandler) handleListActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	holds, err := h.holds.ListActive(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]holdResponse, 0, len(holds))
	for i := range holds {
		out = append(out, toHoldResponse(&holds[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"holds": out})
}
