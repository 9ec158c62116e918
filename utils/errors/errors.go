package errors

import "github.com/muhammadheryan/event-ticket/constant"

type CustomError struct {
	errType constant.ErrorType
	details string
}

func (c CustomError) Error() string {
	return constant.ErrorTypeMessage[c.errType]
}

func (c CustomError) ErrorCode() string {
	return constant.ErrorTypeCode[c.errType]
}

func (c CustomError) ErrorHTTPCode() int {
	return constant.ErrorTypeHTTPCode[c.errType]
}

// Details carries the underlying failure message, e.g. the gateway error body.
func (c CustomError) Details() string {
	return c.details
}

func (c CustomError) Type() constant.ErrorType {
	return c.errType
}

func SetCustomError(errorType constant.ErrorType) CustomError {
	return CustomError{
		errType: errorType,
	}
}

func SetCustomErrorWithDetails(errorType constant.ErrorType, details string) CustomError {
	return CustomError{
		errType: errorType,
		details: details,
	}
}
