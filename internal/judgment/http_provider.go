package judgment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"docucheck/internal/constants"
)

// HTTPProvider talks to the assessment service over HTTP. A client-side rate
// limiter keeps request bursts within what the provider tolerates; waiting
// for a slot respects the caller's context deadline.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

type assessRequest struct {
	RuleText     string                 `json:"rule_text"`
	DocumentData map[string]interface{} `json:"document_data"`
}

func NewHTTPProvider(endpoint string, timeout time.Duration, rps float64, burst int) *HTTPProvider {
	if timeout <= 0 {
		timeout = constants.DefaultJudgmentTimeout
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}

	return &HTTPProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, burst),
	}
}

func (p *HTTPProvider) Assess(ctx context.Context, ruleText string, doc map[string]interface{}) (*Assessment, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	body, err := json.Marshal(assessRequest{RuleText: ruleText, DocumentData: doc})
	if err != nil {
		return nil, fmt.Errorf("failed to encode assessment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assessment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return nil, fmt.Errorf("assessment provider returned status: %d", resp.StatusCode)
	}

	var assessment Assessment
	if err := json.NewDecoder(resp.Body).Decode(&assessment); err != nil {
		return nil, fmt.Errorf("failed to decode assessment response: %w", err)
	}

	return &assessment, nil
}
