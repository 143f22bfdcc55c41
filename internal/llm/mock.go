package llm

import (
	"context"

	"github.com/Harshitk-cp/maestro/internal/domain"
)

// MockClient is a configurable completion client for testing.
// Set GenerateResponse/GenerateError to control the return, or GenerateFunc
// for per-call behavior. Every call is recorded for assertions.
type MockClient struct {
	GenerateResponse string
	GenerateError    error
	GenerateFunc     func(prompt string, params domain.GenerationParams) (string, error)

	// Call tracking for assertions
	GenerateCalls  []string
	GenerateParams []domain.GenerationParams
}

func NewMockClient() *MockClient {
	return &MockClient{
		GenerateResponse: "Mock response",
	}
}

func (c *MockClient) Generate(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
	c.GenerateCalls = append(c.GenerateCalls, prompt)
	c.GenerateParams = append(c.GenerateParams, params)
	if c.GenerateFunc != nil {
		return c.GenerateFunc(prompt, params)
	}
	if c.GenerateError != nil {
		return "", c.GenerateError
	}
	return c.GenerateResponse, nil
}

// Reset clears recorded calls and restores defaults.
func (c *MockClient) Reset() {
	c.GenerateResponse = "Mock response"
	c.GenerateError = nil
	c.GenerateFunc = nil
	c.GenerateCalls = nil
	c.GenerateParams = nil
}

// MockFlowRunner is a configurable flow runner for testing.
type MockFlowRunner struct {
	RunFlowResponse string
	RunFlowError    error

	RunFlowCalls []struct{ Name, Input string }
}

func (r *MockFlowRunner) RunFlow(ctx context.Context, name, input string) (string, error) {
	r.RunFlowCalls = append(r.RunFlowCalls, struct{ Name, Input string }{name, input})
	if r.RunFlowError != nil {
		return "", r.RunFlowError
	}
	return r.RunFlowResponse, nil
}
