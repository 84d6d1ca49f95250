package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"rfpdash/internal"
	"rfpdash/internal/config"
	"rfpdash/internal/logging"
)

const (
	OpListRFPs          = "list rfps"
	OpGetRFP            = "get rfp"
	OpRunPipeline       = "run pipeline"
	OpTechnicalMatching = "run technical matching"
	OpDashboardStats    = "dashboard stats"
	OpInsights          = "ai insights"
)

// Failure is the single error shape returned by every Client operation.
type Failure struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", f.Op, f.Status, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Op, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Client issues one fresh request per call: no retries, no timeout, no caching.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{},
		logger:     logging.OrNop(logger),
	}
}

func (c *Client) ListRFPs(ctx context.Context) ([]internal.RfpSummary, error) {
	body, err := c.do(ctx, OpListRFPs, http.MethodGet, "/api/rfps", nil)
	if err != nil {
		return nil, err
	}
	var out []internal.RfpSummary
	if err := json.Unmarshal(unwrapData(body), &out); err != nil {
		return nil, decodeFailure(OpListRFPs, err)
	}
	if out == nil {
		out = []internal.RfpSummary{}
	}
	return out, nil
}

func (c *Client) GetRFP(ctx context.Context, id string) (internal.RfpSummary, error) {
	if err := requireID(OpGetRFP, id); err != nil {
		return internal.RfpSummary{}, err
	}
	body, err := c.do(ctx, OpGetRFP, http.MethodGet, "/api/rfps/"+url.PathEscape(strings.TrimSpace(id)), nil)
	if err != nil {
		return internal.RfpSummary{}, err
	}
	var out internal.RfpSummary
	if err := json.Unmarshal(unwrapData(body), &out); err != nil {
		return internal.RfpSummary{}, decodeFailure(OpGetRFP, err)
	}
	return out, nil
}

// RunPipeline triggers a backend pipeline run and returns its validated result.
func (c *Client) RunPipeline(ctx context.Context) (internal.RfpResult, error) {
	body, err := c.do(ctx, OpRunPipeline, http.MethodPost, "/api/rfp/run-pipeline", nil)
	if err != nil {
		return internal.RfpResult{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(unwrapData(body)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return internal.RfpResult{}, decodeFailure(OpRunPipeline, err)
	}
	if raw == nil {
		return internal.RfpResult{}, &Failure{Op: OpRunPipeline, Message: "empty pipeline result"}
	}

	result, err := ToRfpResult(raw)
	if err != nil {
		return internal.RfpResult{}, &Failure{Op: OpRunPipeline, Message: "invalid pipeline result: " + err.Error(), Err: err}
	}
	return result, nil
}

func (c *Client) RunTechnicalMatching(ctx context.Context, rfpID string) (internal.TechnicalMatchingResult, error) {
	if err := requireID(OpTechnicalMatching, rfpID); err != nil {
		return internal.TechnicalMatchingResult{}, err
	}
	body, err := c.do(ctx, OpTechnicalMatching, http.MethodPost, "/api/technical-matching/"+url.PathEscape(strings.TrimSpace(rfpID)), nil)
	if err != nil {
		return internal.TechnicalMatchingResult{}, err
	}
	var out internal.TechnicalMatchingResult
	if err := json.Unmarshal(unwrapData(body), &out); err != nil {
		return internal.TechnicalMatchingResult{}, decodeFailure(OpTechnicalMatching, err)
	}
	if out.Matches == nil {
		out.Matches = []map[string]any{}
	}
	return out, nil
}

func (c *Client) DashboardStats(ctx context.Context) (internal.DashboardStats, error) {
	body, err := c.do(ctx, OpDashboardStats, http.MethodGet, "/api/dashboard/stats", nil)
	if err != nil {
		return internal.DashboardStats{}, err
	}
	var out internal.DashboardStats
	if err := json.Unmarshal(unwrapData(body), &out); err != nil {
		return internal.DashboardStats{}, decodeFailure(OpDashboardStats, err)
	}
	return out, nil
}

func (c *Client) Insights(ctx context.Context, pageType string, pageData any) (internal.Insights, error) {
	if strings.TrimSpace(pageType) == "" {
		return internal.Insights{}, &Failure{Op: OpInsights, Message: "page type is required"}
	}
	payload, err := json.Marshal(internal.InsightsRequest{PageType: pageType, PageData: pageData})
	if err != nil {
		return internal.Insights{}, &Failure{Op: OpInsights, Message: err.Error(), Err: err}
	}
	body, err := c.do(ctx, OpInsights, http.MethodPost, "/api/ai-insights", payload)
	if err != nil {
		return internal.Insights{}, err
	}
	var out struct {
		Insights *internal.Insights `json:"insights"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return internal.Insights{}, decodeFailure(OpInsights, err)
	}
	if out.Insights == nil {
		return internal.Insights{}, &Failure{Op: OpInsights, Message: "response has no insights"}
	}
	return *out.Insights, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &Failure{Op: op, Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("gateway request", zap.String("op", op), zap.String("method", method), zap.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("gateway transport error", zap.String("op", op), zap.Error(err))
		return nil, &Failure{Op: op, Message: transportMessage(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Failure{Op: op, Status: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(body)
		c.logger.Warn("gateway non-success status", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return nil, &Failure{Op: op, Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}

func requireID(op, id string) error {
	if strings.TrimSpace(id) == "" {
		return &Failure{Op: op, Message: "rfp id is required"}
	}
	return nil
}

func decodeFailure(op string, err error) error {
	return &Failure{Op: op, Message: "malformed response: " + err.Error(), Err: err}
}

func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return "network error: " + urlErr.Err.Error()
	}
	return "network error: " + err.Error()
}

// errorMessage pulls a human readable message out of a FastAPI or generic error body.
func errorMessage(body []byte) string {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := parsed[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return "An error occurred"
}

// unwrapData returns the "data" member of an enveloped response, or the body itself.
func unwrapData(body []byte) []byte {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return body
	}
	if data, ok := env["data"]; ok && len(data) > 0 && string(data) != "null" {
		return data
	}
	return body
}
