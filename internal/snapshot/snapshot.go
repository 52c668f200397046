// Package snapshot holds the immutable rule-set snapshot served to
// evaluators. Mutations swap the whole snapshot atomically, so concurrent
// evaluations never observe a rule set mid-edit and need no locking.
package snapshot

import (
	"encoding/hex"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/unitmap-io/gounitmap/internal/rules"
)

// Snapshot is one immutable published state of the rule set.
type Snapshot struct {
	ETag      string        `json:"etag"`
	RuleSet   rules.RuleSet `json:"rule_set"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Build computes a content-addressed snapshot for a rule set.
func Build(set rules.RuleSet) *Snapshot {
	blob, _ := json.Marshal(set)
	sum := xxhash.Sum64(blob)
	var raw [8]byte
	for i := 0; i < 8; i++ {
		raw[i] = byte(sum >> (8 * (7 - i)))
	}
	etag := `W/"` + hex.EncodeToString(raw[:]) + `"`
	return &Snapshot{ETag: etag, RuleSet: set, UpdatedAt: time.Now().UTC()}
}

// Holder owns the current snapshot pointer. It is constructed explicitly
// and injected; there is no process-wide instance.
type Holder struct {
	current atomic.Pointer[Snapshot]
	hub     hub
}

// NewHolder creates a holder primed with an empty rule set.
func NewHolder() *Holder {
	h := &Holder{}
	h.current.Store(Build(rules.RuleSet{Rules: []rules.Rule{}}))
	return h
}

// Load returns the current snapshot. The returned value must be treated
// as read-only.
func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Update atomically swaps in a new snapshot and notifies subscribers.
func (h *Holder) Update(s *Snapshot) {
	h.current.Store(s)
	h.hub.publish(s.ETag)
}

// Subscribe registers a change listener carrying new ETags. The returned
// func unsubscribes and closes the channel.
func (h *Holder) Subscribe() (<-chan string, func()) {
	return h.hub.subscribe()
}
