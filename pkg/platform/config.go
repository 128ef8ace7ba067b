package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

// ConfigEnvVar overrides the default config file location.
const ConfigEnvVar = "INTEL_SCOUT_CONFIG"

// fileConfig is the on-disk shape of ~/.intel-scout/platforms.yaml.
type fileConfig struct {
	Platforms []Platform      `json:"platforms"`
	Features  *featureToggles `json:"features,omitempty"`
}

// featureToggles uses pointers so an omitted toggle means "enabled".
type featureToggles struct {
	Containers     *bool `json:"containers,omitempty"`
	Investigations *bool `json:"investigations,omitempty"`
	Scenarios      *bool `json:"scenarios,omitempty"`
	AtomicTesting  *bool `json:"atomicTesting,omitempty"`
	UnifiedSearch  *bool `json:"unifiedSearch,omitempty"`
}

func enabled(b *bool) bool {
	return b == nil || *b
}

func (t *featureToggles) resolve() Features {
	if t == nil {
		return AllFeatures()
	}
	return Features{
		Containers:     enabled(t.Containers),
		Investigations: enabled(t.Investigations),
		Scenarios:      enabled(t.Scenarios),
		AtomicTesting:  enabled(t.AtomicTesting),
		UnifiedSearch:  enabled(t.UnifiedSearch),
	}
}

// DefaultConfigPath returns the config file location, honoring the
// INTEL_SCOUT_CONFIG override.
func DefaultConfigPath() string {
	if p := os.Getenv(ConfigEnvVar); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".intel-scout", "platforms.yaml")
}

// Load reads the platform snapshot from the default location. A missing file
// is not an error: the panel runs with an empty snapshot and shows degraded
// modes instead of failing to start.
func Load() (*Snapshot, error) {
	return LoadFile(DefaultConfigPath())
}

// LoadFile reads the platform snapshot from an explicit path.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return EmptySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading platform config %s: %w", path, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing platform config %s: %w", path, err)
	}

	snap, err := NewSnapshot(cfg.Platforms, cfg.Features.resolve())
	if err != nil {
		return nil, fmt.Errorf("platform config %s: %w", path, err)
	}
	return snap, nil
}

// TokenEnvVar returns the environment variable holding the API token for one
// platform, e.g. INTEL_SCOUT_TOKEN_OCTI_MAIN for id "octi-main". Tokens live
// in the environment only; credential storage belongs to the host, not here.
func TokenEnvVar(platformID string) string {
	id := strings.ToUpper(platformID)
	id = strings.NewReplacer("-", "_", ".", "_").Replace(id)
	return "INTEL_SCOUT_TOKEN_" + id
}

// Token returns the configured API token for a platform, or "".
func Token(platformID string) string {
	return os.Getenv(TokenEnvVar(platformID))
}
