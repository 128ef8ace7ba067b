// Package bridge is the request/response boundary to the backend platforms.
// The panel core treats it as opaque: requests go out, typed completions come
// back, and nothing here retries, caches, or backs off. Staleness of slow
// responses is the panel's problem, not the bridge's.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// RequestType names one remote operation.
type RequestType string

const (
	GetIntelEntity          RequestType = "get-intel-entity"
	GetSimEntity            RequestType = "get-sim-entity"
	GetEntityContainers     RequestType = "get-entity-containers"
	SearchIntel             RequestType = "search-intel"
	SearchSim               RequestType = "search-sim"
	FindContainersByURL     RequestType = "find-containers-by-url"
	CreateContainer         RequestType = "create-container"
	CreateObservables       RequestType = "create-observables"
	CreateInvestigation     RequestType = "create-investigation"
	CreateScenario          RequestType = "create-scenario"
	LaunchAtomicTest        RequestType = "launch-atomic-test"
	GetLabels               RequestType = "get-labels"
	GetMarkings             RequestType = "get-markings"
	GetVocabulary           RequestType = "get-vocabulary"
	GetPlatformStatus       RequestType = "get-platform-status"
	GetSimAssets            RequestType = "get-sim-assets"
	GetSimTeams             RequestType = "get-sim-teams"
	GetSimInjectorContracts RequestType = "get-sim-injector-contracts"
)

// Request is one outbound call to one platform.
type Request struct {
	Type       RequestType    `json:"type"`
	PlatformID string         `json:"platformId"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Response is the uniform reply envelope. Transport problems surface as the
// Caller's error return; a delivered reply with Success false is a remote
// failure and carries Error.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Err converts a remote failure into an error, nil on success.
func (r Response) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == "" {
		return errors.New("platform reported failure without detail")
	}
	return fmt.Errorf("platform error: %s", r.Error)
}

// DecodeEntity unmarshals the data payload as a single raw entity.
func (r Response) DecodeEntity() (Entity, error) {
	if len(r.Data) == 0 {
		return nil, nil
	}
	var e Entity
	if err := json.Unmarshal(r.Data, &e); err != nil {
		return nil, fmt.Errorf("decoding entity payload: %w", err)
	}
	return e, nil
}

// DecodeEntities unmarshals the data payload as a list of raw entities.
func (r Response) DecodeEntities() ([]Entity, error) {
	if len(r.Data) == 0 {
		return nil, nil
	}
	var out []Entity
	if err := json.Unmarshal(r.Data, &out); err != nil {
		return nil, fmt.Errorf("decoding entity list payload: %w", err)
	}
	return out, nil
}

// Caller executes one request against one platform.
type Caller interface {
	Call(ctx context.Context, req Request) (Response, error)
}

// CallerFunc adapts a function to the Caller interface, mainly for tests.
type CallerFunc func(ctx context.Context, req Request) (Response, error)

func (f CallerFunc) Call(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
