package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	auditmetrics "northstar/internal/audit/metrics"
	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
	"northstar/pkg/platform/sentinel"
	txcontext "northstar/pkg/platform/tx"
	"northstar/pkg/requestcontext"
)

// numChainLocks stripes the in-process append locks. Appends to one chain
// serialize on its stripe; different chains almost always proceed in
// parallel. The store's unique (chain, sequence) slot remains the cross-
// process guarantee.
const numChainLocks = 128

// defaultAppendRetries bounds the compare-and-swap loop when another process
// races us to the next sequence number.
const defaultAppendRetries = 8

// Service appends records to chains, assigns sequence numbers, and verifies
// hash linkage. One Service handles every tenant chain plus the platform
// chain; the chain argument selects the partition.
type Service struct {
	store      Store
	logger     *slog.Logger
	metrics    *auditmetrics.Metrics
	tracer     trace.Tracer
	maxRetries int

	chainLocks [numChainLocks]chainLock
}

type chainLock struct{ ch chan struct{} }

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the Prometheus metrics sink.
func WithMetrics(m *auditmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMaxRetries overrides the append retry budget.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// NewService creates the chain service over the given store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		logger:     slog.Default(),
		tracer:     otel.Tracer("northstar/audit"),
		maxRetries: defaultAppendRetries,
	}
	for i := range s.chainLocks {
		s.chainLocks[i].ch = make(chan struct{}, 1)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append links a draft into the chain: reads the head, assigns the next
// sequence number, computes the hash over the draft fields plus the previous
// hash, and inserts. A sequence collision from a concurrent writer triggers a
// re-read and retry; the conflict only surfaces to the caller once the retry
// budget is exhausted. Inside a SQL transaction there is no retry: the
// collision has already aborted the transaction, so the conflict surfaces at
// once and the caller reruns the whole transaction.
func (s *Service) Append(ctx context.Context, chain Chain, draft Draft) (*Record, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	if draft.Timestamp.IsZero() {
		draft.Timestamp = requestcontext.Now(ctx)
	}
	// Stores persist microsecond precision; a hash over anything finer would
	// not survive a round trip.
	draft.Timestamp = draft.Timestamp.Truncate(time.Microsecond).UTC()

	lock := &s.chainLocks[chainStripe(chain.Key())]
	if err := lock.acquire(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "audit append cancelled while waiting for chain lock")
	}
	defer lock.release()

	attempts := s.maxRetries
	if _, inTx := txcontext.From(ctx); inTx {
		// A unique violation aborts the enclosing SQL transaction; a re-read
		// inside it cannot succeed. Surface the conflict on the first
		// collision so the caller retries its whole transaction.
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		head, err := s.store.Head(ctx, chain)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read chain head")
		}

		rec := &Record{
			ID:            id.NewRecordID(),
			Chain:         chain,
			Sequence:      1,
			EventType:     draft.EventType,
			EntityType:    draft.EntityType,
			EntityID:      draft.EntityID,
			ActorID:       draft.ActorID,
			Timestamp:     draft.Timestamp,
			Details:       draft.Details,
			CorrelationID: draft.CorrelationID,
		}
		if head != nil {
			rec.Sequence = head.Sequence + 1
			rec.PrevHash = head.Hash
		}
		rec.Hash = computeHash(rec)

		err = s.store.Append(ctx, rec)
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.IncrementAppendConflict()
			}
			continue
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit record")
		}

		if s.metrics != nil {
			s.metrics.IncrementRecordAppended(chain.IsPlatform())
		}
		s.logger.InfoContext(ctx, "audit record appended",
			"chain", chain.Key(),
			"sequence", rec.Sequence,
			"event_type", rec.EventType,
			"entity_type", rec.EntityType,
			"entity_id", rec.EntityID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return rec, nil
	}

	return nil, dErrors.New(dErrors.CodeConflict, "chain append lost the sequence race; retry with a fresh head")
}

// Head returns the current chain tip, or nil for an empty chain.
func (s *Service) Head(ctx context.Context, chain Chain) (*Head, error) {
	head, err := s.store.Head(ctx, chain)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read chain head")
	}
	return head, nil
}

// Query returns one page of chain records matching the filter.
func (s *Service) Query(ctx context.Context, chain Chain, filter Filter, page Page) (*QueryResult, error) {
	res, err := s.store.Query(ctx, chain, filter, page.normalize())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit chain")
	}
	return res, nil
}

// VerifyIntegrity recomputes every hash in [fromSeq, toSeq] from the stored
// fields and the previous record's stored hash. The walk is ascending; once a
// position mismatches, every later position in range is flagged too, because
// each hash depends on all earlier ones and nothing self-heals past a break.
// Verification is read-only and safe to run concurrently with appends.
func (s *Service) VerifyIntegrity(ctx context.Context, chain Chain, fromSeq, toSeq uint64) (*IntegrityReport, error) {
	ctx, span := s.tracer.Start(ctx, "audit.VerifyIntegrity",
		trace.WithAttributes(
			attribute.String("chain", chain.Key()),
			attribute.Int64("from_seq", int64(fromSeq)),
			attribute.Int64("to_seq", int64(toSeq)),
		))
	defer span.End()

	if fromSeq < 1 || toSeq < fromSeq {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "verification range must satisfy 1 <= from <= to")
	}

	// Fetch one extra record before the range (when from > 1) so the first
	// in-range link can be checked against its true predecessor.
	fetchFrom := fromSeq
	if fetchFrom > 1 {
		fetchFrom--
	}
	records, err := s.store.Range(ctx, chain, fetchFrom, toSeq)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read chain range")
	}

	report := &IntegrityReport{Chain: chain, FromSeq: fromSeq, ToSeq: toSeq, Valid: true}

	expected := fetchFrom
	prevHash := ""
	broken := false
	for i := range records {
		rec := &records[i]
		if rec.Sequence != expected {
			// A gap is itself a violation: flag the missing position and
			// everything after it.
			broken = true
			for seq := max(expected, fromSeq); seq <= toSeq; seq++ {
				report.Violations = append(report.Violations, seq)
			}
			expected = toSeq + 1
			break
		}

		inRange := rec.Sequence >= fromSeq
		if inRange {
			report.Checked++
		}

		if !broken {
			ok := true
			if rec.Sequence > fetchFrom && rec.PrevHash != prevHash {
				ok = false
			}
			if computeHash(rec) != rec.Hash {
				ok = false
			}
			if !ok {
				broken = true
			}
		}
		if broken && inRange {
			report.Violations = append(report.Violations, rec.Sequence)
		}

		prevHash = rec.Hash
		expected++
	}

	if expected <= toSeq {
		// Range ran short of records; missing positions are unverifiable.
		for seq := max(expected, fromSeq); seq <= toSeq; seq++ {
			report.Violations = append(report.Violations, seq)
		}
	}

	report.Valid = len(report.Violations) == 0
	if s.metrics != nil {
		s.metrics.ObserveVerification(report.Valid, len(report.Violations))
	}
	if !report.Valid {
		s.logger.WarnContext(ctx, "audit chain integrity violation detected",
			"chain", chain.Key(),
			"from_seq", fromSeq,
			"to_seq", toSeq,
			"violations", len(report.Violations),
			"first_violation", report.Violations[0],
		)
	}
	return report, nil
}

// VerifyChains verifies several chains in parallel, full range each, and
// returns the reports keyed by chain key. Used by the platform operator
// endpoint that sweeps every tenant.
func (s *Service) VerifyChains(ctx context.Context, chains []Chain) (map[string]*IntegrityReport, error) {
	g, ctx := errgroup.WithContext(ctx)
	reports := make([]*IntegrityReport, len(chains))

	for i, chain := range chains {
		g.Go(func() error {
			head, err := s.store.Head(ctx, chain)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read chain head")
			}
			if head == nil {
				reports[i] = &IntegrityReport{Chain: chain, Valid: true}
				return nil
			}
			report, err := s.VerifyIntegrity(ctx, chain, 1, head.Sequence)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*IntegrityReport, len(chains))
	for i, chain := range chains {
		out[chain.Key()] = reports[i]
	}
	return out, nil
}

func (l *chainLock) acquire(ctx context.Context) error {
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *chainLock) release() { <-l.ch }

// chainStripe picks the lock stripe for a chain key using FNV-1a.
func chainStripe(key string) int {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= fnvPrime
	}
	return int(h % numChainLocks)
}
