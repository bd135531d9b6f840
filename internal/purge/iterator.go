package purge

import (
	"context"

	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
)

// EligibleIterator lazily walks the purge-eligible entity ids for one
// (tenant, entity type) pair. Candidates are pulled from the repository a
// page at a time and filtered through the retention engine and the legal
// hold registry, so the eligible set is never materialized in full.
//
// The iterator is restartable by construction: its only state is the last
// entity id it returned, and already-purged entities never reappear in the
// candidate pages. It is not safe for concurrent use.
type EligibleIterator struct {
	c          *Coordinator
	tenantID   id.TenantID
	entityType id.EntityType
	pageSize   int

	buf     []string
	afterID string
	done    bool
}

// Next returns the next eligible entity id. The second return is false once
// the sequence is exhausted.
func (it *EligibleIterator) Next(ctx context.Context) (string, bool, error) {
	for len(it.buf) == 0 && !it.done {
		if err := it.fill(ctx); err != nil {
			return "", false, err
		}
	}
	if len(it.buf) == 0 {
		return "", false, nil
	}
	next := it.buf[0]
	it.buf = it.buf[1:]
	return next, true, nil
}

// NextBatch returns up to n eligible entity ids, or an empty slice once the
// sequence is exhausted.
func (it *EligibleIterator) NextBatch(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch size must be positive")
	}
	var out []string
	for len(out) < n {
		entityID, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, entityID)
	}
	return out, nil
}

// fill pulls one candidate page from the repository and appends the eligible
// ids to the buffer. A short page marks the iterator done.
func (it *EligibleIterator) fill(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	candidates, err := it.c.repo.ListCandidates(ctx, it.tenantID, it.entityType, it.afterID, it.pageSize)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list purge candidates")
	}
	if len(candidates) < it.pageSize {
		it.done = true
	}
	if len(candidates) == 0 {
		return nil
	}
	it.afterID = candidates[len(candidates)-1].EntityID
	if it.c.metrics != nil {
		it.c.metrics.EligibleScanned.Add(float64(len(candidates)))
	}

	for _, cand := range candidates {
		expired, err := it.c.retention.IsExpired(ctx, it.tenantID, it.entityType, cand.RetentionStart)
		if err != nil {
			// No policy for the type means nothing of that type expires.
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				it.done = true
				it.buf = nil
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "check retention expiry")
		}
		if !expired {
			continue
		}
		held, err := it.c.holds.HasActiveHold(ctx, it.tenantID, it.entityType, cand.EntityID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "check legal hold")
		}
		if held {
			continue
		}
		it.buf = append(it.buf, cand.EntityID)
	}
	return nil
}
