package errors

import (
	stderrors "errors"
	"net/http"
)

// Response is the external representation of an error. It carries only the
// coarse category — Details and Cause never cross the boundary, so a caller
// cannot learn which specific verification check failed.
type Response struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

// ToResponse converts any error into its external representation.
// Non-AppError values collapse to INTERNAL_ERROR with a generic message.
func ToResponse(err error) (int, Response) {
	var ae *AppError
	if !stderrors.As(err, &ae) {
		ae = Internal(err)
	}
	status := ae.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return status, Response{
		Code:      ae.Code,
		Message:   ae.Message,
		Retryable: ae.Retryable,
	}
}
