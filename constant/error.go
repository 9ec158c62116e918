package constant

import "net/http"

type ErrorType int

const (
	Successful ErrorType = iota
	ErrInternal
	ErrNotFound
	ErrInvalidRequest
	ErrUnauthorize
	ErrCredentialExists
	ErrInvalidCredential
	ErrGatewayAuth
	ErrGatewayRequest
	ErrTooManyRequests
	ErrForbidden
)

var ErrorTypeMessage = map[ErrorType]string{
	Successful:           "success",
	ErrInternal:          "error internal",
	ErrNotFound:          "data not found",
	ErrInvalidRequest:    "invalid request",
	ErrUnauthorize:       "unauthorize request",
	ErrCredentialExists:  "email already registered",
	ErrInvalidCredential: "invalid email or password",
	ErrGatewayAuth:       "payment gateway authentication failed",
	ErrGatewayRequest:    "payment gateway request failed",
	ErrTooManyRequests:   "too many payment requests, try again later",
	ErrForbidden:         "forbidden",
}

var ErrorTypeHTTPCode = map[ErrorType]int{
	Successful:           http.StatusOK,
	ErrInternal:          http.StatusInternalServerError,
	ErrNotFound:          http.StatusNotFound,
	ErrInvalidRequest:    http.StatusBadRequest,
	ErrUnauthorize:       http.StatusUnauthorized,
	ErrCredentialExists:  http.StatusConflict,
	ErrInvalidCredential: http.StatusUnauthorized,
	ErrGatewayAuth:       http.StatusInternalServerError,
	ErrGatewayRequest:    http.StatusInternalServerError,
	ErrTooManyRequests:   http.StatusTooManyRequests,
	ErrForbidden:         http.StatusForbidden,
}

var ErrorTypeCode = map[ErrorType]string{
	Successful:           "0000",
	ErrInternal:          "0001",
	ErrNotFound:          "0002",
	ErrInvalidRequest:    "0003",
	ErrUnauthorize:       "0004",
	ErrCredentialExists:  "0005",
	ErrInvalidCredential: "0006",
	ErrGatewayAuth:       "0007",
	ErrGatewayRequest:    "0008",
	ErrTooManyRequests:   "0009",
	ErrForbidden:         "0010",
}
