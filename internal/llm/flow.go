package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPFlowRunner invokes named generation flows on an external flow server.
// MODEL_FLOW tools resolve through it; the flow's output is returned verbatim.
type HTTPFlowRunner struct {
	client *resty.Client
}

func NewHTTPFlowRunner(baseURL string, timeout time.Duration) *HTTPFlowRunner {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json")

	return &HTTPFlowRunner{client: client}
}

type flowRequest struct {
	Flow  string `json:"flow"`
	Input string `json:"input"`
}

type flowResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

func (r *HTTPFlowRunner) RunFlow(ctx context.Context, name, input string) (string, error) {
	var result flowResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(flowRequest{Flow: name, Input: input}).
		SetResult(&result).
		Post("/flows/run")
	if err != nil {
		return "", fmt.Errorf("flow %s request failed: %w", name, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("flow %s returned status %d: %s", name, resp.StatusCode(), resp.String())
	}
	if result.Error != "" {
		return "", fmt.Errorf("flow %s failed: %s", name, result.Error)
	}
	return result.Output, nil
}
