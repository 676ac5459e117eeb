// Package client assembles the OptiCode client core: the local dual-store
// session cache, the remote session gateway, and the hydration handoff,
// initialized from configuration via New.
//
// When a gateway is configured the local stores act as a cache/mirror in
// front of it; without one the client is a purely local (browser-only)
// variant. Dependent remote operations are serialized internally, so a
// rename issued right after a save cannot race the save's completion.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/opticode/core/core/pipeline"
	"github.com/opticode/core/explain"
	"github.com/opticode/core/gateway"
	"github.com/opticode/core/handoff"
	"github.com/opticode/core/observability"
	"github.com/opticode/core/session"
	"github.com/opticode/core/storage"
)

// Event types emitted by the client.
const (
	EventRemoteFailure observability.EventType = "client.remote_failure"
	EventRevert        observability.EventType = "client.revert"
	EventRefresh       observability.EventType = "client.refresh"
)

// ErrNoGateway is returned by operations that require the remote gateway
// when none is configured.
var ErrNoGateway = errors.New("no gateway configured")

// Option configures a Client during New. Options run before config-driven
// initialization and take precedence over it.
type Option func(*Client)

// WithStorage supplies the storage substrate, preempting the config-driven
// backend (which is then never opened).
func WithStorage(kv storage.Store) Option {
	return func(c *Client) { c.kv = kv }
}

// WithGateway overrides the config-created gateway client. Pass nil to force
// the local-only variant regardless of configuration.
func WithGateway(gw *gateway.Client) Option {
	return func(c *Client) { c.gw = gw }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(c *Client) { c.observer = o }
}

// Client is the session-persistence facade consumed by the UI pages.
type Client struct {
	kv       storage.Store
	gw       *gateway.Client
	observer observability.Observer

	store *session.Store
	slot  *handoff.Slot

	// opMu serializes remote-dependent mutations (save, rename, delete,
	// refresh) so operations that depend on each other's completion cannot
	// interleave.
	opMu sync.Mutex
}

// New creates a Client from configuration. Functional options take
// precedence; any subsystem they do not supply is initialized from its
// config section.
func New(cfg *Config, opts ...Option) (*Client, error) {
	c := &Client{
		gw:       gateway.NewClient(&cfg.Gateway),
		observer: observability.NewSlogObserver(slog.Default()),
	}

	for _, opt := range opts {
		opt(c)
	}

	// Opened only when no option supplied a substrate; an injected store
	// must not orphan a config-opened backend handle.
	if c.kv == nil {
		kv, err := storage.NewStore(&cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
		c.kv = kv
	}

	c.store = session.NewStore(c.kv, c.observer)
	c.slot = handoff.NewSlot(c.kv, c.observer)

	return c, nil
}

// Store exposes the dual-store persistence layer for direct listings.
func (c *Client) Store() *session.Store {
	return c.store
}

// Analyse runs the optimization pipeline remotely and classifies the result.
func (c *Client) Analyse(ctx context.Context, code string, level pipeline.Level) (*pipeline.Result, explain.Flags, error) {
	if c.gw == nil {
		return nil, explain.Flags{}, ErrNoGateway
	}

	result, err := c.gw.Analyse(ctx, code, level)
	if err != nil {
		return nil, explain.Flags{}, err
	}
	return result, explain.Classify(result), nil
}

// Save records a completed run in history. When a gateway is configured and
// the record has no identity yet, the remote create runs first so the
// gateway-assigned ID becomes the session's identity everywhere; a prior
// hydration's ID is reused as-is.
//
// The record is saved locally even when the remote create fails; the
// returned error signals the divergence while the run itself stays
// recoverable, never silently lost.
func (c *Client) Save(ctx context.Context, rec session.Record) (session.Record, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var remoteErr error
	if c.gw != nil && rec.ID == "" {
		if rec.Email == "" {
			if user, _ := c.store.User(ctx); user != nil {
				rec.Email = user.Email
			}
		}
		if rec.Email != "" {
			id, err := c.gw.CreateSession(ctx, rec)
			if err != nil {
				remoteErr = fmt.Errorf("remote save: %w", err)
				c.emit(ctx, EventRemoteFailure, observability.LevelWarning, map[string]any{
					"op": "save", "error": err.Error(),
				})
			} else {
				rec.ID = id
			}
		}
	}

	saved, err := c.store.SaveToHistory(ctx, rec)
	if err != nil {
		return saved, err
	}
	return saved, remoteErr
}

// SaveToLibrary adds the record to the curated library. The library is
// client-side curation; it has no remote counterpart.
func (c *Client) SaveToLibrary(ctx context.Context, rec session.Record) (session.Record, error) {
	return c.store.SaveToLibrary(ctx, rec)
}

// Rename updates the session's name remotely first, then in both local
// collections, so a partial failure leaves the local cache on the old,
// still-consistent name.
func (c *Client) Rename(ctx context.Context, id, name string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.gw != nil {
		if err := c.gw.RenameSession(ctx, id, name); err != nil {
			c.emit(ctx, EventRemoteFailure, observability.LevelWarning, map[string]any{
				"op": "rename", "id": id, "error": err.Error(),
			})
			return fmt.Errorf("remote rename: %w", err)
		}
	}

	return c.store.Rename(ctx, id, name)
}

// Delete removes the session optimistically from both local collections,
// then confirms with the gateway. A confirmed remote failure restores the
// removed records, so the optimistic update is reverted rather than left
// divergent. Deleting an unknown ID is a no-op.
func (c *Client) Delete(ctx context.Context, id string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var removedHistory, removedLibrary []session.Record
	for _, rec := range c.store.History(ctx) {
		if rec.ID == id {
			removedHistory = append(removedHistory, rec)
		}
	}
	for _, rec := range c.store.Library(ctx) {
		if rec.ID == id {
			removedLibrary = append(removedLibrary, rec)
		}
	}

	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}

	if c.gw == nil {
		return nil
	}

	if err := c.gw.DeleteSession(ctx, id); err != nil {
		c.emit(ctx, EventRemoteFailure, observability.LevelWarning, map[string]any{
			"op": "delete", "id": id, "error": err.Error(),
		})
		if restoreErr := c.store.Restore(ctx, removedHistory, removedLibrary); restoreErr != nil {
			return errors.Join(fmt.Errorf("remote delete: %w", err), restoreErr)
		}
		c.emit(ctx, EventRevert, observability.LevelWarning, map[string]any{"op": "delete", "id": id})
		return fmt.Errorf("remote delete: %w", err)
	}

	return nil
}

// Refresh rebuilds the local history mirror from the remote listing for the
// current user. The library is left alone; curation is local state.
func (c *Client) Refresh(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.gw == nil {
		return ErrNoGateway
	}
	user, err := c.store.User(ctx)
	if err != nil || user == nil {
		return errors.New("no current user")
	}

	records, err := c.gw.ListSessions(ctx, user.Email)
	if err != nil {
		c.emit(ctx, EventRemoteFailure, observability.LevelWarning, map[string]any{
			"op": "refresh", "error": err.Error(),
		})
		return fmt.Errorf("remote list: %w", err)
	}

	if err := c.store.ReplaceHistory(ctx, records); err != nil {
		return err
	}

	c.emit(ctx, EventRefresh, observability.LevelInfo, map[string]any{"sessions": len(records)})
	return nil
}

// PrepareHandoff looks the session up across both collections and parks it in
// the hydration slot; the caller then navigates to the optimizer page with
// the session's ID in the target URL. Unknown IDs report an error so the UI
// does not navigate into a fresh page the user expected to be a restore.
func (c *Client) PrepareHandoff(ctx context.Context, id string) (session.Record, error) {
	rec, err := c.store.GetByID(ctx, id)
	if err != nil {
		return session.Record{}, err
	}
	if rec == nil {
		return session.Record{}, fmt.Errorf("session %s not found", id)
	}

	if err := c.slot.Offer(ctx, *rec); err != nil {
		return session.Record{}, err
	}
	return *rec, nil
}

// Hydrate consumes the handoff slot for the page that mounted with id in its
// URL and returns the reconstructed page state. An empty id, an empty slot,
// or a slot written for a different session all fall back to the
// fresh/default state with no error.
func (c *Client) Hydrate(ctx context.Context, id string) (handoff.PageState, error) {
	rec, err := c.slot.Take(ctx, id)
	if err != nil {
		return handoff.HydratePage(nil), err
	}
	return handoff.HydratePage(rec), nil
}

// Login stores the current-user marker.
func (c *Client) Login(ctx context.Context, user session.User) error {
	return c.store.SetUser(ctx, user)
}

// Logout clears the current-user marker.
func (c *Client) Logout(ctx context.Context) error {
	return c.store.ClearUser(ctx)
}

// CurrentUser returns the current-user marker, or nil when logged out.
func (c *Client) CurrentUser(ctx context.Context) (*session.User, error) {
	return c.store.User(ctx)
}

// OnExternalChange invokes fn when another handle on the substrate mutates
// session state (the cross-tab case: logout or history edits elsewhere).
// Callers typically re-read listings and the user marker from fn.
func (c *Client) OnExternalChange(ctx context.Context, fn func(key string)) error {
	return c.store.OnExternalChange(ctx, fn)
}

func (c *Client) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	c.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "client",
		Data:      data,
	})
}
