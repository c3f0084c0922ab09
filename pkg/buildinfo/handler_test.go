package buildinfo_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/otherjamesbrown/meetprep/pkg/buildinfo"
)

func TestHandler(t *testing.T) {
	handler := buildinfo.Handler("server")
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Expected Cache-Control no-store, got %s", cc)
	}

	var info buildinfo.Info
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}

	if info.Component != "server" {
		t.Errorf("Expected component 'server', got '%s'", info.Component)
	}
	if info.Version == "" || info.Commit == "" || info.BuildTime == "" {
		t.Errorf("Expected version fields to be non-empty: %+v", info)
	}
	if !strings.HasPrefix(info.GoVersion, "go") {
		t.Errorf("Expected go_version to start with 'go', got '%s'", info.GoVersion)
	}
}
