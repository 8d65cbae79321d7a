package analyzer

import "fmt"

// QuotaError signals that the remote service rejected a call because the
// model's quota is exhausted (HTTP 429 / RESOURCE_EXHAUSTED). It triggers
// model failover without consuming the in-flight item.
type QuotaError struct {
	Model string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("rate limit reached for model: %s", e.Model)
}

// TransientError signals a retryable failure: a network blip or a response
// the parser could not make sense of. Items failing transiently stay
// pending for a future run.
type TransientError struct {
	Reason string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError signals an unrecoverable per-item failure, such as a
// corrupt or unsupported image. The item is quarantined, never retried.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}
