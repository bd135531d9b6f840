package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"northstar/internal/purge"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/httputil"
	"northstar/pkg/requestcontext"
)

// PurgeService is the purge surface the transport layer consumes.
type PurgeService interface {
	IdentifyEligible(ctx context.Context, tenantID id.TenantID, entityType id.EntityType) (*purge.EligibleIterator, error)
	ExecutePurge(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityIDs []string, actor string) (*purge.Summary, error)
}

type purgeHandler struct {
	purge  PurgeService
	logger *slog.Logger
}

func newPurgeHandler(service PurgeService, logger *slog.Logger) *purgeHandler {
	return &purgeHandler{purge: service, logger: logger}
}

func (h *purgeHandler) register(r chi.Router) {
	r.Route("/purge", func(r chi.Router) {
		r.Post("/preview", h.handlePreview)
		r.Post("/execute", h.handleExecute)
	})
}

type previewRequest struct {
	EntityType string `json:"entity_type"`
	Limit      int    `json:"limit"`
}

// handlePreview returns the next batch of purge-eligible entity ids without
// deleting anything.
func (h *purgeHandler) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req previewRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit := req.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	iter, err := h.purge.IdentifyEligible(ctx, tenantID, id.EntityType(req.EntityType))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	eligible, err := iter.NextBatch(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "purge preview failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	if eligible == nil {
		eligible = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"eligible": eligible})
}

type executeRequest struct {
	EntityType string   `json:"entity_type"`
	EntityIDs  []string `json:"entity_ids"`
}

type summaryResponse struct {
	CorrelationID      string   `json:"correlation_id"`
	PurgedCount        int      `json:"purged_count"`
	AlreadyPurgedCount int      `json:"already_purged_count"`
	FailedIDs          []string `json:"failed_ids,omitempty"`
}

func (h *purgeHandler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req executeRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.purge.ExecutePurge(ctx, tenantID, id.EntityType(req.EntityType), req.EntityIDs, requestcontext.ActorID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "purge execution failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summaryResponse{
		CorrelationID:      summary.CorrelationID,
		PurgedCount:        summary.PurgedCount,
		AlreadyPurgedCount: summary.AlreadyPurgedCount,
		FailedIDs:          summary.FailedIDs,
	})
}
