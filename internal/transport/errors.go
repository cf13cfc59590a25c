package transport

// codedError is implemented by errors that carry an application error code.
type codedError interface {
	error
	CodeValue() string
	MessageValue() string
	DetailsValue() any
	RecoveryHintValue() string
}

type errorData struct {
	Code         string `json:"code"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

// ErrApplication is the JSON-RPC code for domain failures.
const ErrApplication = -32000

func rpcCode(code string) int {
	switch code {
	case "METHOD_NOT_FOUND":
		return ErrMethodNotFound
	case "VALIDATION_ERROR":
		return ErrInvalidParams
	default:
		return ErrApplication
	}
}
