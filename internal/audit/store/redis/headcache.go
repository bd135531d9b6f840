// Package redis provides a chain-head read cache in front of another audit
// store. Head lookups happen on every append across the fleet, so keeping the
// tip in Redis spares the primary store a hot-path query. The cache is
// write-through and strictly advisory: a stale head only costs one extra
// compare-and-swap retry, never correctness. Appends running inside a SQL
// transaction bypass the cache; a head is only advertised once committed.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"northstar/internal/audit"
	"northstar/pkg/platform/sentinel"
	txcontext "northstar/pkg/platform/tx"
)

const headKeyPrefix = "audit:head:"

// defaultHeadTTL bounds staleness when a writer crashes between the store
// append and the cache update.
const defaultHeadTTL = 5 * time.Minute

// HeadCache decorates an audit.Store with Redis-backed head caching.
type HeadCache struct {
	inner  audit.Store
	client *redis.Client
	ttl    time.Duration
}

func NewHeadCache(inner audit.Store, client *redis.Client) *HeadCache {
	return &HeadCache{inner: inner, client: client, ttl: defaultHeadTTL}
}

func (c *HeadCache) Append(ctx context.Context, rec *audit.Record) error {
	if err := c.inner.Append(ctx, rec); err != nil {
		// A sequence conflict means the cached head was stale; drop it so the
		// retry reads the true tip from the primary store.
		if errors.Is(err, sentinel.ErrConflict) {
			_ = c.client.Del(context.WithoutCancel(ctx), headKeyPrefix+rec.Chain.Key()).Err()
		}
		return err
	}
	if _, inTx := txcontext.From(ctx); inTx {
		// The row is not committed yet. Caching it now would leave a head
		// pointing at records that never existed if the transaction rolls
		// back, and the next append would build on the phantom. Invalidate
		// and let the next read repopulate from committed state.
		_ = c.client.Del(context.WithoutCancel(ctx), headKeyPrefix+rec.Chain.Key()).Err()
		return nil
	}
	// Best effort write-through; a failed cache write self-corrects via TTL.
	value := strconv.FormatUint(rec.Sequence, 10) + ":" + rec.Hash
	if err := c.client.Set(ctx, headKeyPrefix+rec.Chain.Key(), value, c.ttl).Err(); err != nil {
		_ = c.client.Del(context.WithoutCancel(ctx), headKeyPrefix+rec.Chain.Key()).Err()
	}
	return nil
}

func (c *HeadCache) Head(ctx context.Context, chain audit.Chain) (*audit.Head, error) {
	if _, inTx := txcontext.From(ctx); inTx {
		// Inside a transaction the caller must see its own uncommitted
		// appends; the cache only knows committed state.
		return c.inner.Head(ctx, chain)
	}
	value, err := c.client.Get(ctx, headKeyPrefix+chain.Key()).Result()
	if err == nil {
		if head, parseErr := parseHead(value); parseErr == nil {
			return head, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		// Redis down: fall through to the primary store.
		return c.inner.Head(ctx, chain)
	}

	head, err := c.inner.Head(ctx, chain)
	if err != nil || head == nil {
		return head, err
	}
	value = strconv.FormatUint(head.Sequence, 10) + ":" + head.Hash
	_ = c.client.Set(ctx, headKeyPrefix+chain.Key(), value, c.ttl).Err()
	return head, nil
}

func (c *HeadCache) Range(ctx context.Context, chain audit.Chain, fromSeq, toSeq uint64) ([]audit.Record, error) {
	return c.inner.Range(ctx, chain, fromSeq, toSeq)
}

func (c *HeadCache) Query(ctx context.Context, chain audit.Chain, filter audit.Filter, page audit.Page) (*audit.QueryResult, error) {
	return c.inner.Query(ctx, chain, filter, page)
}

func parseHead(value string) (*audit.Head, error) {
	seqStr, hash, ok := strings.Cut(value, ":")
	if !ok || hash == "" {
		return nil, fmt.Errorf("malformed cached head %q", value)
	}
	seq, err := strconv.ParseUint(seqStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed cached head sequence: %w", err)
	}
	return &audit.Head{Sequence: seq, Hash: hash}, nil
}
