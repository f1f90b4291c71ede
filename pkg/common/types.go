package common

// Response is the success envelope returned by all CRUD endpoints.
type Response struct {
	Data interface{} `json:"data"`
}

// ErrorResponse is the uniform error envelope.
// Errors is only populated for validation failures and carries
// a field -> messages map.
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// NewErrorResponse builds a plain error envelope with just a message.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Message: message}
}

// NewValidationErrorResponse builds the 422 envelope used for
// validation failures.
func NewValidationErrorResponse(errors map[string][]string) ErrorResponse {
	return ErrorResponse{
		Message: "The given data was invalid.",
		Errors:  errors,
	}
}
