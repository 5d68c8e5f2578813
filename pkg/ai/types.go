package ai

import "context"

// Request is the provider-agnostic shape of a single scoring call.
type Request struct {
	SystemPrompt string
	UserContent  string
	MaxTokens    int
	Temperature  float64
}

// Usage reports token consumption for one invocation.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the free-text completion returned by a model.
type Response struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// Invoker describes a model capable of producing a completion for a prompt.
// Implementations return *InvocationError for every provider failure so callers
// can tell quota, auth and timeout failures apart.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Response, error)
	ModelID() string
}

func applyDefaults(req Request) Request {
	if req.MaxTokens <= 0 {
		req.MaxTokens = 1024
	}
	if req.Temperature < 0 {
		req.Temperature = 0
	}
	return req
}
