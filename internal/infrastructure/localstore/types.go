package localstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is the envelope persisted for every key.
type Entry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	StoredAt  time.Time       `json:"stored_at"`
	ExpiresAt time.Time       `json:"expires_at,omitempty"`
}

func (e Entry) expired(reference time.Time) bool {
	return !e.ExpiresAt.IsZero() && !e.ExpiresAt.After(reference)
}

// DecodeError reports an entry that could not be decoded.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode local entry %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
