package common

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
