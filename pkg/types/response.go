package types

type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorEnvelope is the single wire shape for failures. Error holds the
// field-level list for validation failures and is empty otherwise.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   any    `json:"error"`
}
