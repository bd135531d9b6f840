package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"northstar/internal/retention"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/httputil"
	"northstar/pkg/requestcontext"
)

// RetentionService is the retention surface the transport layer consumes.
type RetentionService interface {
	SetPolicy(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, retentionDays, graceDays int) (*retention.Policy, error)
	PolicyFor(ctx context.Context, tenantID id.TenantID, entityType id.EntityType) (*retention.Policy, error)
	ListPolicies(ctx context.Context, tenantID id.TenantID) ([]retention.Policy, error)
}

type retentionHandler struct {
	retention RetentionService
	logger    *slog.Logger
}

func newRetentionHandler(service RetentionService, logger *slog.Logger) *retentionHandler {
	return &retentionHandler{retention: service, logger: logger}
}

func (h *retentionHandler) register(r chi.Router) {
	r.Route("/retention/policies", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{entityType}", h.handleGet)
		r.Put("/{entityType}", h.handleSet)
	})
}

type policyResponse struct {
	EntityType    string    `json:"entity_type"`
	RetentionDays int       `json:"retention_days"`
	GraceDays     int       `json:"grace_days"`
	EffectiveAt   time.Time `json:"effective_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	UpdatedBy     string    `json:"updated_by,omitempty"`
}

func toPolicyResponse(policy *retention.Policy) policyResponse {
	return policyResponse{
		EntityType:    string(policy.EntityType),
		RetentionDays: policy.RetentionDays,
		GraceDays:     policy.GraceDays,
		EffectiveAt:   policy.EffectiveAt,
		UpdatedAt:     policy.UpdatedAt,
		UpdatedBy:     policy.UpdatedBy,
	}
}

type setPolicyRequest struct {
	RetentionDays int `json:"retention_days"`
	GraceDays     int `json:"grace_days"`
}

func (h *retentionHandler) handleSet(w http.ResponseWriter, r *http.Request) {
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

	var req setPolicyRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	policy, err := h.retention.SetPolicy(ctx, tenantID, entityType, req.RetentionDays, req.GraceDays)
	if err != nil {
		h.logger.WarnContext(ctx, "set retention policy rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPolicyResponse(policy))
}

func (h *retentionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
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

	policy, err := h.retention.PolicyFor(ctx, tenantID, entityType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPolicyResponse(policy))
}

func (h *retentionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	policies, err := h.retention.ListPolicies(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]policyResponse, 0, len(policies))
	for i := range policies {
		out = append(out, toPolicyResponse(&policies[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"policies": out})
}
