package exportdto

// DomainError is the JSON error body returned by the HTTP API.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "export service error"
}

const (
	CodeInvalidFEN      = "invalid_fen"
	CodeInvalidRequest  = "invalid_request"
	CodeUnknownFormat   = "unknown_format"
	CodeSurfaceTooLarge = "surface_too_large"
	CodeNotFound        = "not_found"
	CodeInternal        = "internal"
	CodeUnavailable     = "unavailable"
)
