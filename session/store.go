package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/opticode/core/observability"
	"github.com/opticode/core/storage"
)

// Substrate keys for the persisted collections. The shape is load-bearing
// (each collection is a single JSON array); the names are an implementation
// choice shared with the handoff package's slot key.
const (
	keyHistory = "opticode.history"
	keyLibrary = "opticode.library"
	keyUser    = "opticode.user"
)

// historyCap bounds the history log, matching the remote listing limit.
const historyCap = 100

// Event types emitted by the store.
const (
	EventSave           observability.EventType = "session.save"
	EventLibrarySave    observability.EventType = "session.library_save"
	EventRename         observability.EventType = "session.rename"
	EventDelete         observability.EventType = "session.delete"
	EventCorruptPayload observability.EventType = "session.corrupt_payload"
	EventExternalChange observability.EventType = "session.external_change"
)

// ErrNoWatch is returned by OnExternalChange when the substrate cannot
// deliver change notifications.
var ErrNoWatch = errors.New("storage backend does not support change notification")

// Store is the dual-store persistence layer. It keeps two ordered collections
// of records, history (the append log of every run) and library (curated
// saves), in the key-value substrate, and owns identity assignment, rename
// propagation, and deduplicated cross-store lookup.
//
// All methods are safe for concurrent use; mutations on the two collections
// are serialized through one mutex so a save and a rename can never interleave
// their read-modify-write cycles.
type Store struct {
	kv       storage.Store
	observer observability.Observer
	mu       sync.Mutex
}

// NewStore creates a Store over the given substrate. A nil observer disables
// event emission.
func NewStore(kv storage.Store, observer observability.Observer) *Store {
	return &Store{
		kv:       kv,
		observer: observability.OrNoOp(observer),
	}
}

// SaveToHistory records a run in the history collection: it assigns an ID and
// placeholder name if missing, prepends the record (newest first), trims the
// log to its cap, and persists. The finalized record is returned even when
// the write fails, so the caller can retry without losing the run.
//
// History is a capped append log; duplicate IDs are not collapsed on write:
// the newest entry for an ID logically supersedes older ones.
func (s *Store) SaveToHistory(ctx context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.finalize(Now())

	history := s.load(ctx, keyHistory)
	history = append([]Record{rec}, history...)
	if len(history) > historyCap {
		history = history[:historyCap]
	}

	if err := s.persist(ctx, keyHistory, history); err != nil {
		return rec, err
	}

	s.emit(ctx, EventSave, observability.LevelInfo, map[string]any{
		"id": rec.ID, "name": rec.Name, "level": string(rec.Level),
	})
	return rec, nil
}

// SaveToLibrary records a run in the curated library. Saving an ID that is
// already present is a no-op, not a duplicate insert; the stored copy is
// returned unchanged in that case.
func (s *Store) SaveToLibrary(ctx context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.finalize(Now())

	library := s.load(ctx, keyLibrary)
	for _, existing := range library {
		if existing.ID == rec.ID {
			return existing, nil
		}
	}

	library = append([]Record{rec}, library...)
	if err := s.persist(ctx, keyLibrary, library); err != nil {
		return rec, err
	}

	s.emit(ctx, EventLibrarySave, observability.LevelInfo, map[string]any{
		"id": rec.ID, "name": rec.Name,
	})
	return rec, nil
}

// Rename updates the name of every record matching id in both collections.
// Renaming an ID that exists in neither collection is a benign no-op: it is
// logged and reported as success.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("rename %s: name is empty", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, key := range []string{keyHistory, keyLibrary} {
		records := s.load(ctx, key)
		changed := false
		for i := range records {
			if records[i].ID == id {
				records[i].Name = name
				changed = true
			}
		}
		if !changed {
			continue
		}
		found = true
		if err := s.persist(ctx, key, records); err != nil {
			return err
		}
	}

	if !found {
		s.emit(ctx, EventRename, observability.LevelWarning, map[string]any{
			"id": id, "name": name, "found": false,
		})
		return nil
	}

	s.emit(ctx, EventRename, observability.LevelInfo, map[string]any{
		"id": id, "name": name, "found": true,
	})
	return nil
}

// GetByID resolves id over the union of history and library, deduplicated by
// ID. When both collections hold the ID with divergent contents (e.g. after a
// partially applied rename), the history copy wins: history is the
// append-of-record. A missing ID returns (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{keyHistory, keyLibrary} {
		for _, rec := range s.load(ctx, key) {
			if rec.ID == id {
				found := rec
				return &found, nil
			}
		}
	}
	return nil, nil
}

// Delete removes every record matching id from both collections. Deleting an
// absent ID is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(ctx, id)
}

func (s *Store) deleteLocked(ctx context.Context, id string) error {
	removed := 0
	for _, key := range []string{keyHistory, keyLibrary} {
		records := s.load(ctx, key)
		kept := records[:0:0]
		for _, rec := range records {
			if rec.ID != id {
				kept = append(kept, rec)
			}
		}
		if len(kept) == len(records) {
			continue
		}
		removed += len(records) - len(kept)
		if err := s.persist(ctx, key, kept); err != nil {
			return err
		}
	}

	if removed > 0 {
		s.emit(ctx, EventDelete, observability.LevelInfo, map[string]any{
			"id": id, "removed": removed,
		})
	}
	return nil
}

// History returns the history collection, newest first. An empty or
// unreadable collection is an empty slice, never an error.
func (s *Store) History(ctx context.Context) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, keyHistory)
}

// Library returns the library collection, newest first.
func (s *Store) Library(ctx context.Context) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, keyLibrary)
}

// ReplaceHistory swaps the entire history collection, used when rebuilding
// the local mirror from the remote listing. Records keep their order; the cap
// still applies.
func (s *Store) ReplaceHistory(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(records) > historyCap {
		records = records[:historyCap]
	}
	return s.persist(ctx, keyHistory, records)
}

// Restore re-inserts previously removed records into both collections,
// used to revert an optimistic delete after a confirmed remote failure.
// History placement is newest-first by SavedAt among the prepended records.
func (s *Store) Restore(ctx context.Context, history, library []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(history) > 0 {
		records := append(append([]Record{}, history...), s.load(ctx, keyHistory)...)
		if len(records) > historyCap {
			records = records[:historyCap]
		}
		if err := s.persist(ctx, keyHistory, records); err != nil {
			return err
		}
	}
	if len(library) > 0 {
		records := append(append([]Record{}, library...), s.load(ctx, keyLibrary)...)
		if err := s.persist(ctx, keyLibrary, records); err != nil {
			return err
		}
	}
	return nil
}

// SetUser stores the current-user marker.
func (s *Store) SetUser(ctx context.Context, user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.kv.Set(ctx, keyUser, data); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// User returns the current-user marker, or (nil, nil) when no user is set or
// the marker is unreadable.
func (s *Store) User(ctx context.Context) (*User, error) {
	data, err := s.kv.Get(ctx, keyUser)
	if err != nil {
		return nil, nil
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		s.emit(ctx, EventCorruptPayload, observability.LevelWarning, map[string]any{
			"key": keyUser, "error": err.Error(),
		})
		return nil, nil
	}
	return &user, nil
}

// ClearUser removes the current-user marker.
func (s *Store) ClearUser(ctx context.Context) error {
	return s.kv.Delete(ctx, keyUser)
}

// OnExternalChange invokes fn whenever one of the store's keys changes on the
// substrate, until ctx is cancelled. This is the cross-tab notification hook:
// callers refresh dependent state instead of trusting it as stale. Returns
// ErrNoWatch when the substrate has no notification channel.
//
// The substrate reports every change, including ones made through this store;
// fn must tolerate redundant invocations.
func (s *Store) OnExternalChange(ctx context.Context, fn func(key string)) error {
	watcher, ok := s.kv.(storage.Watcher)
	if !ok {
		return ErrNoWatch
	}

	events, err := watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch substrate: %w", err)
	}

	go func() {
		for event := range events {
			switch event.Key {
			case keyHistory, keyLibrary, keyUser:
				s.emit(ctx, EventExternalChange, observability.LevelVerbose, map[string]any{
					"key": event.Key, "removed": event.Removed,
				})
				fn(event.Key)
			}
		}
	}()
	return nil
}

// load reads one collection. A missing key is an empty collection; a corrupt
// or unreadable payload is also treated as empty (logged, never propagated),
// so a damaged cache degrades to a fresh one instead of wedging the caller.
func (s *Store) load(ctx context.Context, key string) []Record {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.emit(ctx, EventCorruptPayload, observability.LevelWarning, map[string]any{
				"key": key, "error": err.Error(),
			})
		}
		return nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.emit(ctx, EventCorruptPayload, observability.LevelWarning, map[string]any{
			"key": key, "error": err.Error(),
		})
		return nil
	}
	return records
}

// persist writes one collection. Failures are surfaced to the caller; the
// in-memory records still exist and the operation can be retried.
func (s *Store) persist(ctx context.Context, key string, records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func (s *Store) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	s.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "session",
		Data:      data,
	})
}
