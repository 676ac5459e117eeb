package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opticode/core/core/pipeline"
	"github.com/opticode/core/gateway"
	"github.com/opticode/core/session"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *gateway.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := gateway.NewClient(&gateway.Config{BaseURL: server.URL})
	if client == nil {
		t.Fatal("NewClient returned nil for configured gateway")
	}
	return client
}

func TestNewClient_DisabledWithoutBaseURL(t *testing.T) {
	if client := gateway.NewClient(&gateway.Config{}); client != nil {
		t.Error("expected nil client for empty BaseURL")
	}
	if client := gateway.NewClient(nil); client != nil {
		t.Error("expected nil client for nil config")
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := gateway.DefaultConfig()

	cfg.Merge(&gateway.Config{BaseURL: "http://localhost:5000", TimeoutSeconds: 10})

	if cfg.BaseURL != "http://localhost:5000" {
		t.Errorf("got BaseURL %q, want merged value", cfg.BaseURL)
	}
	if cfg.TimeoutSeconds != 10 {
		t.Errorf("got TimeoutSeconds %d, want 10", cfg.TimeoutSeconds)
	}
}

func TestClient_CreateSession(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sessions" {
			t.Errorf("got %s %s, want POST /api/sessions", r.Method, r.URL.Path)
		}

		var rec session.Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if rec.Email != "ada@example.com" {
			t.Errorf("got email %q, want ada@example.com", rec.Email)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "abc123", "message": "created"})
	})

	id, err := client.CreateSession(ctx, session.Record{Email: "ada@example.com", Name: "Run"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if id != "abc123" {
		t.Errorf("got id %q, want abc123", id)
	}
}

func TestClient_CreateSession_RequiresEmail(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	})

	if _, err := client.CreateSession(ctx, session.Record{}); err == nil {
		t.Error("expected error for missing email")
	}
}

func TestClient_ListSessions(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/ada@example.com" {
			t.Errorf("got path %q, want /api/sessions/ada@example.com", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "s2", "name": "Newest"},
			{"id": "s1", "name": "Oldest"},
		})
	})

	records, err := client.ListSessions(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "s2" {
		t.Errorf("got records[0].ID %q, want newest first", records[0].ID)
	}
}

func TestClient_RenameSession(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/sessions/item/s1" {
			t.Errorf("got %s %s, want PATCH /api/sessions/item/s1", r.Method, r.URL.Path)
		}

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "Renamed" {
			t.Errorf("got name %q, want Renamed", body["name"])
		}

		json.NewEncoder(w).Encode(map[string]string{"message": "updated"})
	})

	if err := client.RenameSession(ctx, "s1", "Renamed"); err != nil {
		t.Fatalf("RenameSession failed: %v", err)
	}
}

func TestClient_DeleteSession(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK},
		{name: "already deleted counts as success", status: http.StatusNotFound},
		{name: "server error propagates", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete {
					t.Errorf("got method %s, want DELETE", r.Method)
				}
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"message": "x"})
			})

			err := client.DeleteSession(ctx, "s1")
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("got error %v, want nil", err)
			}
		})
	}
}

func TestClient_Analyse(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyse" {
			t.Errorf("got path %q, want /api/analyse", r.URL.Path)
		}

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["optimization_level"] != "level1" {
			t.Errorf("got level %q, want level1", body["optimization_level"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"passed_error_check": true,
			"optimization_ran":   true,
			"original_code":      body["code"],
			"optimized_code":     "x = 1",
			"optimization_level": "level1",
			"l1_changes":         []string{"Folded arithmetic identity (x + 0 → x)"},
		})
	})

	result, err := client.Analyse(ctx, "x = 1 + 0", pipeline.LevelRule)
	if err != nil {
		t.Fatalf("Analyse failed: %v", err)
	}
	if !result.PassedErrorCheck || !result.OptimizationRan {
		t.Error("stage flags not decoded")
	}
	if result.OptimizedCode != "x = 1" {
		t.Errorf("got OptimizedCode %q, want x = 1", result.OptimizedCode)
	}
	if len(result.L1Changes) != 1 {
		t.Errorf("got %d l1 changes, want 1", len(result.L1Changes))
	}
}

func TestClient_ErrorMessageDecoded(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "code is required"})
	})

	_, err := client.Analyse(ctx, "", pipeline.LevelNone)
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr, ok := err.(*gateway.APIError)
	if !ok {
		t.Fatalf("got %T, want *gateway.APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Message != "code is required" {
		t.Errorf("got message %q, want gateway's error body", apiErr.Message)
	}
}

func TestClient_Health(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("got path %q, want /api/health", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	if err := client.Health(ctx); err != nil {
		t.Errorf("Health failed: %v", err)
	}
}
