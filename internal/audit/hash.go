package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// genesisMarker replaces the previous-hash link for the first record of a
// chain so a genesis hash can never be confused with a normal link.
const genesisMarker = "genesis"

// canonical serializes the semantically meaningful fields of a record into a
// stable pipe-delimited form. Details are hashed separately so arbitrary
// payload bytes cannot inject field separators.
func canonical(r *Record) string {
	detailsSum := sha256.Sum256(r.Details)
	fields := []string{
		r.Chain.Key(),
		strconv.FormatUint(r.Sequence, 10),
		string(r.EventType),
		string(r.EntityType),
		r.EntityID,
		r.ActorID,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		hex.EncodeToString(detailsSum[:]),
		r.CorrelationID,
	}
	return strings.Join(fields, "|")
}

// computeHash returns the record hash: SHA-256 over the canonical fields plus
// the previous record's hash, or the genesis marker for sequence 1.
func computeHash(r *Record) string {
	link := r.PrevHash
	if r.Sequence == 1 {
		link = genesisMarker
	}
	sum := sha256.Sum256([]byte(canonical(r) + "|" + link))
	return hex.EncodeToString(sum[:])
}
