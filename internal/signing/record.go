// Package signing makes archived battles verifiable: a digest binds the engine
// version, seed, request and result together, an HMAC signs the digest, and
// Replay re-runs the request to prove the result.
package signing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
)

// Record is the signed content of an archived battle.
type Record struct {
	EngineVersion string         `json:"engine_version"`
	Seed          uint32         `json:"seed"`
	Request       battle.Request `json:"request"`
	Result        battle.Result  `json:"result"`
}

// NewRecord binds a request to the result it produced.
func NewRecord(engineVersion string, req battle.Request, res battle.Result) Record {
	return Record{
		EngineVersion: engineVersion,
		Seed:          res.Seed,
		Request:       req,
		Result:        res,
	}
}

// Canonical returns the JSON encoding the digest is computed over. Struct
// fields keep declaration order and map keys are sorted, so equal records
// always encode identically.
func (r Record) Canonical() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("signing: encode record: %w", err)
	}
	return b, nil
}

// Digest is the hex SHA-256 of the canonical record.
func Digest(r Record) (string, error) {
	b, err := r.Canonical()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
