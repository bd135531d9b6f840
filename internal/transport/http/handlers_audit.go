package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"northstar/internal/audit"
	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
	"northstar/pkg/platform/httputil"
	"northstar/pkg/requestcontext"
)

// AuditService is the audit surface the transport layer consumes.
type AuditService interface {
	Append(ctx context.Context, chain audit.Chain, draft audit.Draft) (*audit.Record, error)
	Head(ctx context.Context, chain audit.Chain) (*audit.Head, error)
	Query(ctx context.Context, chain audit.Chain, filter audit.Filter, page audit.Page) (*audit.QueryResult, error)
	VerifyIntegrity(ctx context.Context, chain audit.Chain, fromSeq, toSeq uint64) (*audit.IntegrityReport, error)
}

type auditHandler struct {
	audit  AuditService
	logger *slog.Logger
}

func newAuditHandler(service AuditService, logger *slog.Logger) *auditHandler {
	return &auditHandler{audit: service, logger: logger}
}

func (h *auditHandler) register(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Post("/records", h.handleAppend)
		r.Get("/records", h.handleQuery)
		r.Get("/head", h.handleHead)
		r.Post("/verify", h.handleVerify)
	})
}

type appendRequest struct {
	EventType  string         `json:"event_type"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
}

func (h *auditHandler) handleAppend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req appendRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	entityType, err := id.ParseEntityType(req.EntityType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	draft := audit.Draft{
		EventType:  audit.EventType(req.EventType),
		EntityType: entityType,
		EntityID:   req.EntityID,
		ActorID:    requestcontext.ActorID(ctx),
	}
	if req.Details != nil {
		draft.Details = mustJSON(req.Details)
	}

	record, err := h.audit.Append(ctx, audit.TenantChain(tenantID), draft)
	if err != nil {
		h.logger.WarnContext(ctx, "audit append rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRecordResponse(record))
}

func (h *auditHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	serveQuery(w, r, h.audit, audit.TenantChain(tenantID), h.logger)
}

func (h *auditHandler) handleHead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	serveHead(w, r, h.audit, audit.TenantChain(tenantID))
}

func (h *auditHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := requireTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	serveVerify(w, r, h.audit, audit.TenantChain(tenantID), h.logger)
}

// platformAuditHandler exposes the platform chain under /platform. Routes
// mirror the tenant surface minus append: platform records are only written
// by the tenant lifecycle service.
type platformAuditHandler struct {
	audit  AuditService
	logger *slog.Logger
}

func newPlatformAuditHandler(service AuditService, logger *slog.Logger) *platformAuditHandler {
	return &platformAuditHandler{audit: service, logger: logger}
}

func (h *platformAuditHandler) register(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Get("/records", h.handleQuery)
		r.Get("/head", h.handleHead)
		r.Post("/verify", h.handleVerify)
	})
}

func (h *platformAuditHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	serveQuery(w, r, h.audit, audit.PlatformChain(), h.logger)
}

func (h *platformAuditHandler) handleHead(w http.ResponseWriter, r *http.Request) {
	serveHead(w, r, h.audit, audit.PlatformChain())
}

func (h *platformAuditHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	serveVerify(w, r, h.audit, audit.PlatformChain(), h.logger)
}

func serveQuery(w http.ResponseWriter, r *http.Request, service AuditService, chain audit.Chain, logger *slog.Logger) {
	ctx := r.Context()
	filter := audit.Filter{
		EntityType: id.EntityType(r.URL.Query().Get("entity_type")),
		EntityID:   r.URL.Query().Get("entity_id"),
		ActorID:    r.URL.Query().Get("actor_id"),
		From:       queryTime(r, "from"),
		To:         queryTime(r, "to"),
	}
	page := audit.Page{
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}

	result, err := service.Query(ctx, chain, filter, page)
	if err != nil {
		logger.ErrorContext(ctx, "audit query failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toQueryResponse(result))
}

func serveHead(w http.ResponseWriter, r *http.Request, service AuditService, chain audit.Chain) {
	head, err := service.Head(r.Context(), chain)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if head == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "chain is empty"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"sequence": head.Sequence,
		"hash":     head.Hash,
	})
}

type verifyRequest struct {
	FromSeq uint64 `json:"from_seq"`
	ToSeq   uint64 `json:"to_seq"`
}

func serveVerify(w http.ResponseWriter, r *http.Request, service AuditService, chain audit.Chain, logger *slog.Logger) {
	ctx := r.Context()
	var req verifyRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := service.VerifyIntegrity(ctx, chain, req.FromSeq, req.ToSeq)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !report.Valid {
		logger.WarnContext(ctx, "integrity verification found violations",
			"chain", chain.Key(),
			"violations", len(report.Violations),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteJSON(w, http.StatusOK, toIntegrityResponse(report))
}
