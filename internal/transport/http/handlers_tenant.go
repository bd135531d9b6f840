package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"northstar/internal/tenant"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/httputil"
	"northstar/pkg/requestcontext"
)

// TenantService is the tenant lifecycle surface the transport layer consumes.
type TenantService interface {
	Create(ctx context.Context, name string) (*tenant.Tenant, error)
	Get(ctx context.Context, tenantID id.TenantID) (*tenant.Tenant, error)
	List(ctx context.Context) ([]tenant.Tenant, error)
	Suspend(ctx context.Context, tenantID id.TenantID) (*tenant.Tenant, error)
	Reactivate(ctx context.Context, tenantID id.TenantID) (*tenant.Tenant, error)
}

type tenantHandler struct {
	tenants TenantService
	logger  *slog.Logger
}

func newTenantHandler(service TenantService, logger *slog.Logger) *tenantHandler {
	return &tenantHandler{tenants: service, logger: logger}
}

func (h *tenantHandler) register(r chi.Router) {
	r.Route("/tenants", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{tenantID}", h.handleGet)
		r.Post("/{tenantID}/suspend", h.handleSuspend)
		r.Post("/{tenantID}/reactivate", h.handleReactivate)
	})
}

type tenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTenantResponse(t *tenant.Tenant) tenantResponse {
	return tenantResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

type createTenantRequest struct {
	Name string `json:"name"`
}

func (h *tenantHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createTenantRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := h.tenants.Create(ctx, req.Name)
	if err != nil {
		h.logger.WarnContext(ctx, "create tenant rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTenantResponse(t))
}

func (h *tenantHandler) handleList(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]tenantResponse, 0, len(tenants))
	for i := range tenants {
		out = append(out, toTenantResponse(&tenants[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"tenants": out})
}

func (h *tenantHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	t, err := h.tenants.Get(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(t))
}

func (h *tenantHandler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tenants.Suspend)
}

func (h *tenantHandler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tenants.Reactivate)
}

func (h *tenantHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, id.TenantID) (*tenant.Tenant, error)) {
	ctx := r.Context()
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := apply(ctx, tenantID)
	if err != nil {
		h.logger.WarnContext(ctx, "tenant transition rejected",
			"tenant_id", tenantID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(t))
}
