package client

import (
	"context"
	"io"
	"net/http"
	"time"
)

// ProbeTimeout bounds each endpoint probe
const ProbeTimeout = 5 * time.Second

// ProbeResult is the outcome of probing one candidate
type ProbeResult struct {
	Endpoint     string        `json:"endpoint"`
	Reachable    bool          `json:"working"`
	StatusCode   int           `json:"status_code,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
}

// Probe checks every candidate in order. Any HTTP response counts as
// reachable. The failover cursor is not touched.
func (c *Client) Probe(ctx context.Context) []ProbeResult {
	candidates := c.endpoints.Candidates()
	results := make([]ProbeResult, 0, len(candidates))
	for _, endpoint := range candidates {
		results = append(results, c.probe(ctx, endpoint))
	}
	return results
}

func (c *Client) probe(ctx context.Context, endpoint string) ProbeResult {
	result := ProbeResult{Endpoint: endpoint}

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/health", nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	result.ResponseTime = time.Since(start)
	result.Reachable = true
	result.StatusCode = resp.StatusCode
	return result
}
