package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"northstar/internal/audit"
	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
	"northstar/pkg/requestcontext"
)

// requireTenant pulls the token's tenant from context. Platform tokens have
// none, so tenant-scope endpoints reject them here.
func requireTenant(ctx context.Context) (id.TenantID, error) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		return id.TenantID{}, dErrors.New(dErrors.CodeForbidden, "a tenant-scoped token is required")
	}
	return tenantID, nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func queryUint64(r *http.Request, key string, fallback uint64) uint64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func queryTime(r *http.Request, key string) time.Time {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

type recordResponse struct {
	ID            string          `json:"id"`
	Sequence      uint64          `json:"sequence"`
	EventType     string          `json:"event_type"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	ActorID       string          `json:"actor_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Details       json.RawMessage `json:"details,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Hash          string          `json:"hash"`
	PrevHash      string          `json:"prev_hash,omitempty"`
}

func toRecordResponse(rec *audit.Record) recordResponse {
	return recordResponse{
		ID:            rec.ID.String(),
		Sequence:      rec.Sequence,
		EventType:     string(rec.EventType),
		EntityType:    string(rec.EntityType),
		EntityID:      rec.EntityID,
		ActorID:       rec.ActorID,
		Timestamp:     rec.Timestamp,
		Details:       rec.Details,
		CorrelationID: rec.CorrelationID,
		Hash:          rec.Hash,
		PrevHash:      rec.PrevHash,
	}
}

type queryResponse struct {
	Records []recordResponse `json:"records"`
	Total   int              `json:"total"`
}

func toQueryResponse(result *audit.QueryResult) queryResponse {
	records := make([]recordResponse, 0, len(result.Records))
	for i := range result.Records {
		records = append(records, toRecordResponse(&result.Records[i]))
	}
	return queryResponse{Records: records, Total: result.Total}
}

type integrityResponse struct {
	Chain      string   `json:"chain"`
	FromSeq    uint64   `json:"from_seq"`
	ToSeq      uint64   `json:"to_seq"`
	Checked    int      `json:"checked"`
	Valid      bool     `json:"valid"`
	Violations []uint64 `json:"violations,omitempty"`
}

func toIntegrityResponse(report *audit.IntegrityReport) integrityResponse {
	return integrityResponse{
		Chain:      report.Chain.Key(),
		FromSeq:    report.FromSeq,
		ToSeq:      report.ToSeq,
		Checked:    report.Checked,
		Valid:      report.Valid,
		Violations: report.Violations,
	}
}
