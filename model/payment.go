package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/muhammadheryan/event-ticket/constant"
	"github.com/shopspring/decimal"
)

// PaymentEntity represents the payment_request table entity
type PaymentEntity struct {
	ID                uint64                 `db:"id"`
	CheckoutRequestID string                 `db:"checkout_request_id"`
	MerchantRequestID string                 `db:"merchant_request_id"`
	PhoneNumber       string                 `db:"phone_number"`
	Amount            decimal.Decimal        `db:"amount"`
	ShortCode         string                 `db:"short_code"`
	Timestamp         string                 `db:"timestamp"`
	Status            constant.PaymentStatus `db:"status"`
	ResultCode        *int                   `db:"result_code"`
	ResultDesc        string                 `db:"result_desc"`
	ReceiptNumber     string                 `db:"receipt_number"`
	CreatedAt         time.Time              `db:"created_at"`
	UpdatedAt         *time.Time             `db:"updated_at"`
}

// PaymentTransition is a terminal status change for one checkout request.
type PaymentTransition struct {
	CheckoutRequestID string
	Status            constant.PaymentStatus
	ResultCode        *int
	ResultDesc        string
	ReceiptNumber     string
	Source            string
}

type InitiatePaymentRequest struct {
	PhoneNumber string          `json:"phone_number" validate:"required,msisdn"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

// InitiatePaymentResponse is the gateway acknowledgement plus the locally
// derived credentials needed for a later status query.
type InitiatePaymentResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	Password            string `json:"Password"`
	Timestamp           string `json:"Timestamp"`
}

type VerifyPaymentRequest struct {
	Password          string `json:"Password"`
	CheckoutRequestID string `json:"CheckoutRequestID" validate:"required"`
	Timestamp         string `json:"Timestamp"`
}

type PaymentStatusResponse struct {
	CheckoutRequestID string                 `json:"CheckoutRequestID"`
	PhoneNumber       string                 `json:"phone_number"`
	Amount            decimal.Decimal        `json:"amount"`
	Status            constant.PaymentStatus `json:"status"`
	ResultDesc        string                 `json:"result_desc,omitempty"`
	ReceiptNumber     string                 `json:"receipt_number,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         *time.Time             `json:"updated_at,omitempty"`
}

// CallbackAck is returned to the gateway for every callback delivery. A zero
// ResultCode means the callback was received, not that the payment succeeded.
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

type StkCallbackEnvelope struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        json.RawMessage   `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

type CallbackMetadata struct {
	Item []CallbackItem `json:"Item"`
}

type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// Code parses ResultCode, which the gateway sends as a number but which is
// tolerated as a quoted string. ok is false when it is missing or not an integer.
func (c StkCallback) Code() (code int, ok bool) {
	raw := bytes.TrimSpace(c.ResultCode)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	raw = bytes.Trim(raw, `"`)
	code, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false
	}
	return code, true
}

// MetadataString returns the named CallbackMetadata item formatted as a string.
func (c StkCallback) MetadataString(name string) string {
	if c.CallbackMetadata == nil {
		return ""
	}
	for _, item := range c.CallbackMetadata.Item {
		if item.Name != name || item.Value == nil {
			continue
		}
		switch v := item.Value.(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}
