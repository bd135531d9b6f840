package audit

import "context"

// Store persists audit records. Implementations must enforce a unique
// (chain, sequence) slot: Append returns sentinel.ErrConflict when a
// concurrent writer already consumed the sequence number, which drives the
// service's compare-and-swap retry.
type Store interface {
	// Append inserts the record. Records are never updated or deleted.
	Append(ctx context.Context, rec *Record) error

	// Head returns the chain tip, or (nil, nil) for an empty chain.
	Head(ctx context.Context, chain Chain) (*Head, error)

	// Range returns records with fromSeq <= sequence <= toSeq in ascending
	// sequence order. Missing positions are simply absent from the result.
	Range(ctx context.Context, chain Chain, fromSeq, toSeq uint64) ([]Record, error)

	// Query returns one page of records matching the filter, newest first,
	// along with the total match count.
	Query(ctx context.Context, chain Chain, filter Filter, page Page) (*QueryResult, error)
}
