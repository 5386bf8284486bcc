package weather

import "fmt"

// NotFoundError means a geocoding lookup produced no matches.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no location matches %q", e.Query)
}

// UpstreamError means a provider returned a non-success status or an explicit
// error payload. Message carries the provider's own error text when present.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: upstream status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: upstream status %d", e.Provider, e.Status)
}

// MalformedResponseError means a provider returned 200 with a structurally
// incomplete body. Treated identically to an upstream failure: the payload is
// never partially trusted.
type MalformedResponseError struct {
	Provider string
	Detail   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Provider, e.Detail)
}

// LocationUnavailableError means device geolocation was denied, unsupported,
// or timed out. Resolution silently continues to the next priority tier.
type LocationUnavailableError struct {
	Reason string
}

func (e *LocationUnavailableError) Error() string {
	return "device location unavailable: " + e.Reason
}

// ConfigurationError means the request itself is missing required parameters.
// Surfaced immediately; no fallback is attempted.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// StageError annotates the final unrecoverable failure with the orchestration
// stage it occurred at.
type StageError struct {
	Stage    string // "current" or "forecast"
	Provider string // last provider attempted
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage=%s provider=%s: %v", e.Stage, e.Provider, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
