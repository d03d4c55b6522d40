package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestPineconeUpsert(t *testing.T) {
	var payload struct {
		Vectors   []Vector `json:"vectors"`
		Namespace string   `json:"namespace"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/upsert" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Api-Key"); got != "test-key" {
			t.Errorf("unexpected api key header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewPineconeClient(zerolog.Nop(), server.URL, "test-key")

	err := client.Upsert(context.Background(), "user-1", []Vector{
		{ID: "task-1", Values: []float32{0.1, 0.2}},
	})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	if payload.Namespace != "user-1" {
		t.Errorf("expected namespace user-1, got %q", payload.Namespace)
	}
	if len(payload.Vectors) != 1 || payload.Vectors[0].ID != "task-1" {
		t.Errorf("unexpected vectors payload: %v", payload.Vectors)
	}
}

func TestPineconeQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var payload struct {
			TopK      int    `json:"topK"`
			Namespace string `json:"namespace"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if payload.TopK != 5 {
			t.Errorf("expected topK 5, got %d", payload.TopK)
		}
		if payload.Namespace != "user-1" {
			t.Errorf("expected namespace user-1, got %q", payload.Namespace)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"matches": []Match{
				{ID: "task-2", Score: 0.92},
				{ID: "task-1", Score: 0.81},
			},
		})
	}))
	defer server.Close()

	client := NewPineconeClient(zerolog.Nop(), server.URL, "test-key")

	matches, err := client.Query(context.Background(), "user-1", []float32{0.1, 0.2}, 5)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "task-2" || matches[0].Score != 0.92 {
		t.Errorf("unexpected first match: %+v", matches[0])
	}
}

func TestPineconeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewPineconeClient(zerolog.Nop(), server.URL, "test-key")

	err := client.Upsert(context.Background(), "user-1", []Vector{{ID: "task-1"}})
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestPineconeDeleteNamespace(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/delete" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewPineconeClient(zerolog.Nop(), server.URL, "test-key")

	err := client.DeleteNamespace(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("DeleteNamespace() error: %v", err)
	}

	if payload["deleteAll"] != true {
		t.Errorf("expected deleteAll true, got %v", payload["deleteAll"])
	}
	if payload["namespace"] != "user-1" {
		t.Errorf("expected namespace user-1, got %v", payload["namespace"])
	}
}

func TestNoopIndex(t *testing.T) {
	var index NoopIndex
	ctx := context.Background()

	if err := index.Upsert(ctx, "user-1", []Vector{{ID: "task-1"}}); err != nil {
		t.Errorf("Upsert() error: %v", err)
	}
	matches, err := index.Query(ctx, "user-1", []float32{0.1}, 5)
	if err != nil {
		t.Errorf("Query() error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}
