package gateway

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func testPolicy() Policy {
	return Policy{
		Timeout:       5 * time.Second,
		MaxRetries:    3,
		BackoffFactor: 0.001,
	}
}

func TestStoreUpdateRoundTrip(t *testing.T) {
	store := NewStore("https://default.example/v1", "default-model", testPolicy())

	snapshot, err := store.Update("https://api.example/v1", "sk-secret", "m1")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if snapshot.Endpoint != "https://api.example/v1" {
		t.Errorf("snapshot endpoint = %q, want %q", snapshot.Endpoint, "https://api.example/v1")
	}
	if snapshot.DefaultModel != "m1" {
		t.Errorf("snapshot model = %q, want %q", snapshot.DefaultModel, "m1")
	}

	got := store.Snapshot()
	if got != snapshot {
		t.Errorf("Snapshot() = %+v, want %+v", got, snapshot)
	}
}

func TestSnapshotNeverContainsKey(t *testing.T) {
	store := NewStore("https://default.example/v1", "default-model", testPolicy())
	if _, err := store.Update("https://api.example/v1", "sk-secret", "m1"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	data, err := json.Marshal(store.Snapshot())
	if err != nil {
		t.Fatalf("failed to marshal snapshot: %v", err)
	}
	if strings.Contains(string(data), "sk-secret") {
		t.Errorf("snapshot JSON leaks the API key: %s", data)
	}
}

func TestStoreUpdateRejectsMissingFields(t *testing.T) {
	store := NewStore("https://default.example/v1", "default-model", testPolicy())

	cases := []struct {
		name     string
		endpoint string
		key      string
	}{
		{"missing endpoint", "", "sk-secret"},
		{"missing key", "https://api.example/v1", ""},
		{"both missing", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.Update(tc.endpoint, tc.key, "m1"); !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("Update(%q, %q) error = %v, want ErrMissingCredentials", tc.endpoint, tc.key, err)
			}
		})
	}

	// Failed updates must not touch the store
	got := store.Snapshot()
	if got.Endpoint != "https://default.example/v1" || got.DefaultModel != "default-model" {
		t.Errorf("store mutated by rejected update: %+v", got)
	}
}

func TestStoreUpdateEmptyModelKeepsDefault(t *testing.T) {
	store := NewStore("https://default.example/v1", "default-model", testPolicy())

	snapshot, err := store.Update("https://api.example/v1", "sk-secret", "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if snapshot.DefaultModel != "default-model" {
		t.Errorf("model = %q, want default kept", snapshot.DefaultModel)
	}
}

func TestStoreUpdateTrimsTrailingSlash(t *testing.T) {
	store := NewStore("https://default.example/v1", "default-model", testPolicy())

	snapshot, err := store.Update("https://api.example/v1/", "sk-secret", "m1")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if snapshot.Endpoint != "https://api.example/v1" {
		t.Errorf("endpoint = %q, want trailing slash removed", snapshot.Endpoint)
	}
}
