package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/monadic/intel-scout/pkg/platform"
)

// RPCPath is appended to each platform's base URL.
const RPCPath = "/api/panel/rpc"

// HTTPCaller posts requests to each platform's panel RPC endpoint. One
// caller serves every configured platform; the snapshot resolves base URLs
// and API tokens come from the environment.
type HTTPCaller struct {
	client *http.Client
	snap   *platform.Snapshot
}

// NewHTTPCaller builds a caller over the platform snapshot.
func NewHTTPCaller(snap *platform.Snapshot) *HTTPCaller {
	return &HTTPCaller{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		snap: snap,
	}
}

// Call implements Caller. A non-2xx status or an undecodable reply counts as
// a remote failure; only channel-level problems return an error.
func (c *HTTPCaller) Call(ctx context.Context, req Request) (Response, error) {
	p, ok := c.snap.ByID(req.PlatformID)
	if !ok {
		return Response{}, fmt.Errorf("unknown platform %q", req.PlatformID)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encoding %s request: %w", req.Type, err)
	}

	endpoint := strings.TrimRight(p.URL, "/") + RPCPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("building %s request for %s: %w", req.Type, p.ID, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if tok := platform.Token(p.ID); tok != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("calling %s on %s: %w", req.Type, p.ID, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return Response{
			Success: false,
			Error:   fmt.Sprintf("HTTP %d from %s: %s", httpResp.StatusCode, p.ID, strings.TrimSpace(string(detail))),
		}, nil
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return Response{
			Success: false,
			Error:   fmt.Sprintf("undecodable reply from %s: %v", p.ID, err),
		}, nil
	}
	return resp, nil
}
