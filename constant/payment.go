package constant

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "INITIATED"
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusFailed
}

// CallbackResultSuccess is the stkCallback ResultCode of a completed payment.
const CallbackResultSuccess = 0

const (
	CallbackAckCode = 0
	CallbackAckDesc = "Success"
)

// QueryResultInProgress is returned by the STK status query while the customer
// has not yet answered the prompt. It is not a final result.
const QueryResultInProgress = 4999

var queryInFlightCodes = map[int]struct{}{
	QueryResultInProgress: {},
}

// IsQueryInFlight reports whether a status query result code leaves the request open.
func IsQueryInFlight(code int) bool {
	_, ok := queryInFlightCodes[code]
	return ok
}
