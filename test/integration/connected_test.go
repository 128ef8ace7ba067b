//go:build integration
// +build integration

// Package integration provides integration tests that require a reachable
// backend platform configured in ~/.intel-scout/platforms.yaml (or the file
// named by INTEL_SCOUT_CONFIG).
//
// Run with: go test -tags=integration ./test/integration/...
package integration

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/monadic/intel-scout/pkg/bridge"
	"github.com/monadic/intel-scout/pkg/platform"
)

// livePlatformEnv names the platform id the tests should exercise. Leaving it
// unset skips every test in this package.
const livePlatformEnv = "INTEL_SCOUT_LIVE_PLATFORM"

// skipIfNotConnected skips the test unless a live platform is configured and
// present in the snapshot. Returns the snapshot and the chosen platform.
func skipIfNotConnected(t *testing.T) (*platform.Snapshot, platform.Platform) {
	t.Helper()

	id := os.Getenv(livePlatformEnv)
	if id == "" {
		t.Skipf("%s not set", livePlatformEnv)
	}

	snap, err := platform.Load()
	if err != nil {
		t.Fatalf("Failed to load platform config: %v", err)
	}

	p, ok := snap.ByID(id)
	if !ok {
		t.Skipf("Platform %q not in config %s", id, platform.DefaultConfigPath())
	}
	if platform.Token(p.ID) == "" {
		t.Skipf("No token in %s", platform.TokenEnvVar(p.ID))
	}

	return snap, p
}

// callLive issues one request with a bounded deadline. The production panel
// runs without timeouts; tests do not.
func callLive(t *testing.T, snap *platform.Snapshot, req bridge.Request) bridge.Response {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := bridge.NewHTTPCaller(snap).Call(ctx, req)
	if err != nil {
		t.Fatalf("Transport failure for %s: %v", req.Type, err)
	}
	return resp
}

func TestPlatformStatus(t *testing.T) {
	snap, p := skipIfNotConnected(t)

	resp := callLive(t, snap, bridge.Request{
		Type:       bridge.GetPlatformStatus,
		PlatformID: p.ID,
	})
	if err := resp.Err(); err != nil {
		t.Fatalf("Status check failed: %v", err)
	}
}

func TestSearchReturnsEntityList(t *testing.T) {
	snap, p := skipIfNotConnected(t)

	reqType := bridge.SearchIntel
	if p.Kind == platform.KindSim {
		reqType = bridge.SearchSim
	}

	resp := callLive(t, snap, bridge.Request{
		Type:       reqType,
		PlatformID: p.ID,
		Payload:    map[string]any{"query": "localhost", "limit": 5},
	})
	if err := resp.Err(); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	entities, err := resp.DecodeEntities()
	if err != nil {
		t.Fatalf("Search reply is not an entity list: %v", err)
	}
	for i, e := range entities {
		if e.ID() == "" {
			raw, _ := json.Marshal(e)
			t.Errorf("Entity %d has no identifying field: %s", i, raw)
		}
	}
}

func TestGetEntityRoundTrip(t *testing.T) {
	snap, p := skipIfNotConnected(t)
	if p.Kind != platform.KindIntel {
		t.Skipf("Platform %q is not an intel platform", p.ID)
	}

	search := callLive(t, snap, bridge.Request{
		Type:       bridge.SearchIntel,
		PlatformID: p.ID,
		Payload:    map[string]any{"query": "", "limit": 1},
	})
	if err := search.Err(); err != nil {
		t.Fatalf("Seed search failed: %v", err)
	}
	entities, err := search.DecodeEntities()
	if err != nil {
		t.Fatalf("Seed search reply undecodable: %v", err)
	}
	if len(entities) == 0 {
		t.Skip("Platform has no entities to fetch")
	}

	id := entities[0].ID()
	if id == "" {
		t.Fatal("Seed entity has no identifying field")
	}

	resp := callLive(t, snap, bridge.Request{
		Type:       bridge.GetIntelEntity,
		PlatformID: p.ID,
		Payload:    map[string]any{"id": id},
	})
	if err := resp.Err(); err != nil {
		t.Fatalf("Get entity %s failed: %v", id, err)
	}

	full, err := resp.DecodeEntity()
	if err != nil {
		t.Fatalf("Entity reply undecodable: %v", err)
	}
	if full == nil {
		t.Fatalf("Entity %s resolved to nil", id)
	}
	if got := full.ID(); got != id {
		t.Errorf("Fetched entity id = %q, want %q", got, id)
	}
}

func TestFindContainersByURL(t *testing.T) {
	snap, p := skipIfNotConnected(t)
	if p.Kind != platform.KindIntel {
		t.Skipf("Platform %q is not an intel platform", p.ID)
	}

	resp := callLive(t, snap, bridge.Request{
		Type:       bridge.FindContainersByURL,
		PlatformID: p.ID,
		Payload:    map[string]any{"url": "https://example.invalid/nonexistent"},
	})
	if err := resp.Err(); err != nil {
		t.Fatalf("Container lookup failed: %v", err)
	}

	// A URL nothing references must yield an empty list, not a failure.
	containers, err := resp.DecodeEntities()
	if err != nil {
		t.Fatalf("Container reply undecodable: %v", err)
	}
	if len(containers) != 0 {
		t.Logf("Unexpected containers for sentinel URL: %d", len(containers))
	}
}
