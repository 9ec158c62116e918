package mpesa

import (
	"bytes"
	"encoding/json"
	"strconv"
)

const (
	transactionTypePayBill = "CustomerPayBillOnline"
	TimestampLayout        = "20060102150405"
)

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkQueryRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// PushAck is the gateway's immediate reply to an STK push.
type PushAck struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// PushResult is the acknowledgement together with the credentials that were
// sent, which the gateway does not echo back.
type PushResult struct {
	PushAck
	Password  string
	Timestamp string
}

// QueryResponse holds the fields of a status query reply used for reconciliation.
type QueryResponse struct {
	ResponseCode        string     `json:"ResponseCode"`
	ResponseDescription string     `json:"ResponseDescription"`
	MerchantRequestID   string     `json:"MerchantRequestID"`
	CheckoutRequestID   string     `json:"CheckoutRequestID"`
	ResultCode          ResultCode `json:"ResultCode"`
	ResultDesc          string     `json:"ResultDesc"`
}

// QueryResult keeps the raw gateway body next to its parsed form.
type QueryResult struct {
	Raw      json.RawMessage
	Response QueryResponse
}

// ResultCode accepts both "0" and 0 on the wire.
type ResultCode struct {
	Value int
	Valid bool
}

func (r *ResultCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = ResultCode{}
		return nil
	}
	n, err := strconv.Atoi(string(bytes.Trim(b, `"`)))
	if err != nil {
		*r = ResultCode{}
		return nil
	}
	*r = ResultCode{Value: n, Valid: true}
	return nil
}
