package utils

// ErrorResponse is the body of every error reply. Error is a short
// snake_case code clients can switch on; Message is for people.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
