// Package handoff moves one fully-formed session from the page that saved or
// loaded it to the page that will display it, across a navigation boundary
// that cannot pass in-memory objects. It is a single-slot, consume-once
// channel with an owner-set/consumer-clear contract, explicitly not a
// session cache.
package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opticode/core/observability"
	"github.com/opticode/core/session"
	"github.com/opticode/core/storage"
)

// keySlot keys the transient holding area, independent of the two durable
// collections.
const keySlot = "opticode.handoff"

// Event types emitted by the slot.
const (
	EventOffer       observability.EventType = "handoff.offer"
	EventTake        observability.EventType = "handoff.take"
	EventMismatch    observability.EventType = "handoff.mismatch"
	EventCorruptSlot observability.EventType = "handoff.corrupt_slot"
)

// Slot is the transient holding area. Two concurrent writers racing on the
// slot is a documented hazard: the last write before the reading page mounts
// wins, which is why Take validates the stored ID against the navigation
// target before trusting the payload.
type Slot struct {
	kv       storage.Store
	observer observability.Observer
	mu       sync.Mutex
}

// NewSlot creates a Slot over the given substrate. A nil observer disables
// event emission.
func NewSlot(kv storage.Store, observer observability.Observer) *Slot {
	return &Slot{
		kv:       kv,
		observer: observability.OrNoOp(observer),
	}
}

// Offer writes rec into the slot before navigation, replacing any previous
// occupant (last writer wins). The record must already carry its identity;
// the reading page matches the slot against the ID in its navigation target.
func (s *Slot) Offer(ctx context.Context, rec session.Record) error {
	if rec.ID == "" {
		return errors.New("handoff: record has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("handoff: marshal record: %w", err)
	}
	if err := s.kv.Set(ctx, keySlot, data); err != nil {
		return fmt.Errorf("handoff: store slot: %w", err)
	}

	s.emit(ctx, EventOffer, observability.LevelVerbose, map[string]any{"id": rec.ID})
	return nil
}

// Take consumes the slot for the page navigating to session id. The payload
// is returned only when the stored slot's ID equals id, and the slot is
// cleared in the same call (consume-once). Every other case (empty id,
// absent slot, mismatched ID) is a silent fresh-state fallback, (nil, nil).
//
// A mismatched slot is left in place: it may belong to a navigation that has
// not mounted yet. A corrupt slot is cleared so it cannot wedge future takes.
func (s *Slot) Take(ctx context.Context, id string) (*session.Record, error) {
	if id == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(ctx, keySlot)
	if err != nil {
		return nil, nil
	}

	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.emit(ctx, EventCorruptSlot, observability.LevelWarning, map[string]any{
			"error": err.Error(),
		})
		_ = s.kv.Delete(ctx, keySlot)
		return nil, nil
	}

	if rec.ID != id {
		s.emit(ctx, EventMismatch, observability.LevelVerbose, map[string]any{
			"want": id, "have": rec.ID,
		})
		return nil, nil
	}

	if err := s.kv.Delete(ctx, keySlot); err != nil {
		// The payload is still good; a failed clear only degrades
		// consume-once, which the next take's ID check bounds.
		s.emit(ctx, EventCorruptSlot, observability.LevelWarning, map[string]any{
			"error": err.Error(),
		})
	}

	s.emit(ctx, EventTake, observability.LevelInfo, map[string]any{"id": rec.ID})
	return &rec, nil
}

func (s *Slot) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	s.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "handoff",
		Data:      data,
	})
}
