package domain

import "errors"

// ChatRequest is an inbound chat turn from the API boundary.
type ChatRequest struct {
	Message         string `json:"message"`
	SessionID       string `json:"sessionId"`
	IntegrationType string `json:"integrationType,omitempty"`
}

// ChatResponse is what the caller receives for a turn.
type ChatResponse struct {
	Reply   string `json:"reply"`
	Intent  string `json:"intent"`
	Blocked bool   `json:"blocked,omitempty"`
}

// Error taxonomy for the routing pipeline. Each category maps to a specific
// user-facing reply; only ErrBackend ever produces a generic apology. Internal
// detail is never forwarded to the client.
var (
	// ErrRateLimited means the user exceeded the per-window request budget.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCircuitOpen means the model backend is degraded and calls are
	// being rejected until the recovery window elapses.
	ErrCircuitOpen = errors.New("model backend circuit open")

	// ErrInjectionRejected means the input was refused by the injection
	// filter. This is a rejected input, not a system fault.
	ErrInjectionRejected = errors.New("message rejected by injection filter")

	// ErrBackend means the model backend call failed in a way not absorbed
	// by fallback handling. The turn is still recorded.
	ErrBackend = errors.New("model backend error")

	// ErrInvalidRequest means the request was structurally unusable
	// (empty message or missing session id).
	ErrInvalidRequest = errors.New("invalid chat request")
)
