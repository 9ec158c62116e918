package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	apppayment "github.com/muhammadheryan/event-ticket/application/payment"
	"github.com/muhammadheryan/event-ticket/cmd/config"
	"github.com/muhammadheryan/event-ticket/constant"
	paymentappmocks "github.com/muhammadheryan/event-ticket/mocks/application/payment"
	paymentmocks "github.com/muhammadheryan/event-ticket/mocks/repository/payment"
	redismocks "github.com/muhammadheryan/event-ticket/mocks/repository/redis"
	txmocks "github.com/muhammadheryan/event-ticket/mocks/repository/tx"
	mpesamocks "github.com/muhammadheryan/event-ticket/mocks/thirdparty/mpesa"
	"github.com/muhammadheryan/event-ticket/model"
	"github.com/muhammadheryan/event-ticket/thirdparty/mpesa"
	"github.com/muhammadheryan/event-ticket/thirdparty/rabbitmq"
	cerr "github.com/muhammadheryan/event-ticket/utils/errors"
	"github.com/muhammadheryan/event-ticket/utils/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const checkoutID = "ws_CO_191220191020363925"

const (
	successCallback = `{"Body":{"stkCallback":{"MerchantRequestID":"29115-34620561-1","CheckoutRequestID":"ws_CO_191220191020363925",` +
		`"ResultCode":0,"ResultDesc":"The service request is processed successfully.","CallbackMetadata":{"Item":[` +
		`{"Name":"Amount","Value":1.00},{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"},{"Name":"Balance"},` +
		`{"Name":"TransactionDate","Value":20191219102115},{"Name":"PhoneNumber","Value":254708374149}]}}}}`
	cancelledCallback = `{"Body":{"stkCallback":{"MerchantRequestID":"29115-34620561-1","CheckoutRequestID":"ws_CO_191220191020363925",` +
		`"ResultCode":1032,"ResultDesc":"Request cancelled by user"}}}`
)

func TestMain(m *testing.M) {
	logger.Set(zap.NewNop())
	os.Exit(m.Run())
}

func newConfig(policy config.VerifyCredentialsPolicy) *config.Config {
	return &config.Config{
		Mpesa: config.MpesaConfig{
			ShortCode:         "174379",
			TimestampLocation: "UTC",
			ReconcileDelay:    2 * time.Minute,
			VerifyCredentials: policy,
			PushLimit:         3,
			PushWindow:        time.Minute,
		},
	}
}

func queryResult(t *testing.T, body string) *mpesa.QueryResult {
	res := &mpesa.QueryResult{Raw: json.RawMessage(body)}
	require.NoError(t, json.Unmarshal([]byte(body), &res.Response))
	return res
}

func pending() *model.PaymentEntity {
	return &model.PaymentEntity{
		ID:                1,
		CheckoutRequestID: checkoutID,
		PhoneNumber:       "254712345678",
		Amount:            decimal.NewFromInt(100),
		ShortCode:         "174379",
		Timestamp:         "20240102130000",
		Status:            constant.PaymentStatusPending,
	}
}

func assertErrCode(t *testing.T, err error, code constant.ErrorType) cerr.CustomError {
	t.Helper()
	var ce cerr.CustomError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want CustomError", err)
	}
	if ce.ErrorCode() != constant.ErrorTypeCode[code] {
		t.Fatalf("error code = %s, want %s", ce.ErrorCode(), constant.ErrorTypeCode[code])
	}
	return ce
}

type fields struct {
	config      *config.Config
	txRepo      *txmocks.TxRepository
	paymentRepo *paymentmocks.PaymentRepository
	redisRepo   *redismocks.RedisRepository
	gateway     *mpesamocks.Gateway
	publisher   *paymentappmocks.ReconcilePublisher
}

func newFields(t *testing.T, policy config.VerifyCredentialsPolicy) fields {
	return fields{
		config:      newConfig(policy),
		txRepo:      txmocks.NewTxRepository(t),
		paymentRepo: paymentmocks.NewPaymentRepository(t),
		redisRepo:   redismocks.NewRedisRepository(t),
		gateway:     mpesamocks.NewGateway(t),
		publisher:   paymentappmocks.NewReconcilePublisher(t),
	}
}

func (f fields) app() apppayment.PaymentApp {
	return apppayment.NewPaymentApp(f.config, f.txRepo, f.paymentRepo, f.redisRepo, f.gateway, f.publisher)
}

func TestPaymentApp_Initiate(t *testing.T) {
	push := &mpesa.PushResult{
		PushAck: mpesa.PushAck{
			MerchantRequestID:   "29115-34620561-1",
			CheckoutRequestID:   checkoutID,
			ResponseCode:        "0",
			ResponseDescription: "Success. Request accepted for processing",
			CustomerMessage:     "Success. Request accepted for processing",
		},
		Password:  "MTc0Mzc5cGFzc2tleTIwMjQwMTAyMTMwMDAw",
		Timestamp: "20240102130000",
	}
	validReq := &model.InitiatePaymentRequest{PhoneNumber: "0712345678", Amount: decimal.NewFromInt(100)}
	amount100 := mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(100)) })

	type args struct {
		ctx context.Context
		req *model.InitiatePaymentRequest
	}
	tests := []struct {
		name     string
		fields   fields
		args     args
		mockCall func(f fields)
		want     *model.InitiatePaymentResponse
		wantErr  bool
		errCode  constant.ErrorType
		details  string
	}{
		{
			name:   "success: push accepted, request stored as pending and reconcile scheduled",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), req: validReq},
			mockCall: func(f fields) {
				f.redisRepo.On("IncrWindow", mock.Anything, "stkpush:254712345678", time.Minute).Return(int64(1), nil).Once()
				f.gateway.On("InitiatePush", mock.Anything, "254712345678", amount100).Return(push, nil).Once()
				f.paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *model.PaymentEntity) bool {
					return p.CheckoutRequestID == checkoutID &&
						p.MerchantRequestID == "29115-34620561-1" &&
						p.PhoneNumber == "254712345678" &&
						p.Amount.Equal(decimal.NewFromInt(100)) &&
						p.ShortCode == "174379" &&
						p.Timestamp == "20240102130000" &&
						p.Status == constant.PaymentStatusPending
				})).Return(uint64(1), nil).Once()
				f.publisher.On("PublishPaymentReconcile", mock.MatchedBy(func(msg rabbitmq.PaymentReconcileMessage) bool {
					return msg.CheckoutRequestID == checkoutID && msg.ReconcileAt.After(time.Now().Add(time.Minute))
				})).Return(nil).Once()
			},
			want: &model.InitiatePaymentResponse{
				MerchantRequestID:   "29115-34620561-1",
				CheckoutRequestID:   checkoutID,
				ResponseCode:        "0",
				ResponseDescription: "Success. Request accepted for processing",
				CustomerMessage:     "Success. Request accepted for processing",
				Password:            "MTc0Mzc5cGFzc2tleTIwMjQwMTAyMTMwMDAw",
				Timestamp:           "20240102130000",
			},
		},
		{
			name:   "success: publish failure does not fail the initiation",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), req: validReq},
			mockCall: func(f fields) {
				f.redisRepo.On("IncrWindow", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil).Once()
				f.gateway.On("InitiatePush", mock.Anything, "254712345678", amount100).Return(push, nil).Once()
				f.paymentRepo.On("Create", mock.Anything, mock.Anything).Return(uint64(1), nil).Once()
				f.publisher.On("PublishPaymentReconcile", mock.Anything).Return(errors.New("channel closed")).Once()
			},
			want: &model.InitiatePaymentResponse{
				MerchantRequestID:   "29115-34620561-1",
				CheckoutRequestID:   checkoutID,
				ResponseCode:        "0",
				ResponseDescription: "Success. Request accepted for processing",
				CustomerMessage:     "Success. Request accepted for processing",
				Password:            "MTc0Mzc5cGFzc2tleTIwMjQwMTAyMTMwMDAw",
				Timestamp:           "20240102130000",
			},
		},
		{
			name:   "success: throttle store unavailable lets the push through",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), req: validReq},
			mockCall: func(f fields) {
				f.redisRepo.On("IncrWindow", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("redis down")).Once()
				f.gateway.On("InitiatePush", mock.Anything, "254712345678", amount100).Return(push, nil).Once()
				f.paymentRepo.On("Create", mock.Anything, mock.Anything).Return(uint64(1), nil).Once()
				f.publisher.On("PublishPaymentReconcile", mock.Anything).Return(nil).Once()
			},
			want: &model.InitiatePaymentResponse{
				MerchantRequestID:   "29115-34620561-1",
				CheckoutRequestID:   checkoutID,
				ResponseCode:        "0",
				ResponseDescription: "Success. Request accepted for processing",
				CustomerMessage:     "Success. Request accepted for processing",
				Password:            "MTc0Mzc5cGFzc2tleTIwMjQwMTAyMTMwMDAw",
				Timestamp:           "20240102130000",
			},
		},
		{
			name:    "error: missing phone number never reaches the gateway",
			fields:  newFields(t, config.VerifyCredentialsEcho),
			args:    args{ctx: context.Background(), req: &model.InitiatePaymentRequest{Amount: decimal.NewFromInt(100)}},
			wantErr: true,
			errCode: constant.ErrInvalidRequest,
		},
		{
			name:    "error: phone number with letters",
			fields:  newFields(t, config.VerifyCredentialsEcho),
			args:    args{ctx: context.Background(), req: &model.InitiatePaymentRequest{PhoneNumber: "07123abc78", Amount: decimal.NewFromInt(100)}},
			wantErr: true,
			errCode: constant.ErrInvalidRequest,
		},
		{
			name:    "error: zero amount",
			fields:  newFields(t, config.VerifyCredentialsEcho),
			args:    args{ctx: context.Background(), req: &model.InitiatePaymentRequest{PhoneNumber: "0712345678", Amount: decimal.Zero}},
			wantErr: true,
			errCode: constant.ErrInvalidRequest,
		},
		{
			name:    "error: negative amount",
			fields:  newFields(t, config.VerifyCredentialsEcho),
			args:    args{ctx: context.Background(), req: &model.InitiatePaymentRequest{PhoneNumber: "0712345678", Amount: decimal.NewFromInt(-5)}},
			wantErr: true,
			errCode: constant.ErrInvalidRequest,
		},
		{
			name:    "error: fractional amount",
			fields:  newFields(t, config.VerifyCredentialsEcho),
			args:    args{ctx: context.Background(), req: &model.InitiatePaymentRequest{PhoneNumber: "0712345678", Amount: decimal.RequireFromString("99.50")}},
			wantErr: true,
			errCode: constant.ErrInvalidRequest,
			details: "amount must be a whole number",
		},
		{
			name:   "error: too many pushes for the same phone",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), req: validReq},
			mockCall: func(f fields) {
				f.redisRepo.On("IncrWindow", mock.Anything, "stkpush:254712345678", time.Minute).Return(int64(4), nil).Once()
			},
			wantErr: true,
			errCode: constant.ErrTooManyRequests,
		},
		{
			name:   "error: gateway token rejected",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), req: validReq},
			mockCall: func(f fields) {
				f.redisRepo.On("IncrWindow", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil).Once()
				f.gateway.On("InitiatePush", mock.Anything, "254712345678", amount100).
					Return(nil, &mpesa.GatewayAuthError{StatusCode: 400, Body: `{"errorMessage":"Invalid Authentication passed"}`}).Once()
			},
			wantErr: true,
			errCode: constant.ErrGatewayAuth,
			details: "Invalid Authentication passed",
		},
		{
			name:   "error: gateway rejects the push",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), req: validReq},
			mockCall: func(f fields) {
				f.redisRepo.On("IncrWindow", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil).Once()
				f.gateway.On("InitiatePush", mock.Anything, "254712345678", amount100).
					Return(nil, &mpesa.GatewayRequestError{Operation: "stkpush", StatusCode: 400, Body: `{"errorCode":"400.002.02","errorMessage":"Bad Request - Invalid PhoneNumber"}`}).Once()
			},
			wantErr: true,
			errCode: constant.ErrGatewayRequest,
			details: "Bad Request - Invalid PhoneNumber",
		},
		{
			name:   "error: store fails after the gateway accepted the push",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), req: validReq},
			mockCall: func(f fields) {
				f.redisRepo.On("IncrWindow", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil).Once()
				f.gateway.On("InitiatePush", mock.Anything, "254712345678", amount100).Return(push, nil).Once()
				f.paymentRepo.On("Create", mock.Anything, mock.Anything).Return(uint64(0), errors.New("duplicate entry")).Once()
			},
			wantErr: true,
			errCode: constant.ErrInternal,
			details: "duplicate entry",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if tt.mockCall != nil {
				tt.mockCall(tt.fields)
			}

			got, err := tt.fields.app().Initiate(tt.args.ctx, tt.args.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Initiate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				ce := assertErrCode(t, err, tt.errCode)
				if tt.details != "" {
					assert.Equal(t, tt.details, ce.Details())
				}
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaymentApp_Initiate_WithoutPublisher(t *testing.T) {
	f := newFields(t, config.VerifyCredentialsEcho)
	f.config.Mpesa.PushLimit = 0
	push := &mpesa.PushResult{PushAck: mpesa.PushAck{CheckoutRequestID: checkoutID, ResponseCode: "0"}, Timestamp: "20240102130000"}
	f.gateway.On("InitiatePush", mock.Anything, "254712345678", mock.Anything).Return(push, nil).Once()
	f.paymentRepo.On("Create", mock.Anything, mock.Anything).Return(uint64(1), nil).Once()

	app := apppayment.NewPaymentApp(f.config, f.txRepo, f.paymentRepo, nil, f.gateway, nil)
	got, err := app.Initiate(context.Background(), &model.InitiatePaymentRequest{PhoneNumber: "+254712345678", Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, checkoutID, got.CheckoutRequestID)
}

func TestPaymentApp_HandleCallback(t *testing.T) {
	ack := &model.CallbackAck{ResultCode: 0, ResultDesc: "Success"}

	type args struct {
		ctx     context.Context
		payload string
	}
	tests := []struct {
		name     string
		fields   fields
		args     args
		mockCall func(f fields)
	}{
		{
			name:   "success: result code 0 marks the request succeeded",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), payload: successCallback},
			mockCall: func(f fields) {
				tx := &sqlx.Tx{}
				f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Once()
				f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).Return(pending(), nil).Once()
				f.paymentRepo.On("UpdateStatusTx", mock.Anything, tx, mock.MatchedBy(func(req *model.PaymentTransition) bool {
					return req.CheckoutRequestID == checkoutID &&
						req.Status == constant.PaymentStatusSucceeded &&
						req.ResultCode != nil && *req.ResultCode == 0 &&
						req.ReceiptNumber == "NLJ7RT61SV" &&
						req.Source == "callback"
				})).Return(nil).Once()
				f.txRepo.On("CommitTx", tx).Return(nil).Once()
			},
		},
		{
			name:   "success: non-zero result code marks the request failed",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), payload: cancelledCallback},
			mockCall: func(f fields) {
				tx := &sqlx.Tx{}
				f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Once()
				f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).Return(pending(), nil).Once()
				f.paymentRepo.On("UpdateStatusTx", mock.Anything, tx, mock.MatchedBy(func(req *model.PaymentTransition) bool {
					return req.Status == constant.PaymentStatusFailed &&
						req.ResultCode != nil && *req.ResultCode == 1032 &&
						req.ResultDesc == "Request cancelled by user" &&
						req.ReceiptNumber == ""
				})).Return(nil).Once()
				f.txRepo.On("CommitTx", tx).Return(nil).Once()
			},
		},
		{
			name:   "success: quoted result code is accepted",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args: args{ctx: context.Background(), payload: `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_191220191020363925","ResultCode":"0","ResultDesc":"ok"}}}`},
			mockCall: func(f fields) {
				tx := &sqlx.Tx{}
				f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Once()
				f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).Return(pending(), nil).Once()
				f.paymentRepo.On("UpdateStatusTx", mock.Anything, tx, mock.MatchedBy(func(req *model.PaymentTransition) bool {
					return req.Status == constant.PaymentStatusSucceeded
				})).Return(nil).Once()
				f.txRepo.On("CommitTx", tx).Return(nil).Once()
			},
		},
		{
			name:   "success: missing result code is treated as failed",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args: args{ctx: context.Background(), payload: `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_191220191020363925"}}}`},
			mockCall: func(f fields) {
				tx := &sqlx.Tx{}
				f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Once()
				f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).Return(pending(), nil).Once()
				f.paymentRepo.On("UpdateStatusTx", mock.Anything, tx, mock.MatchedBy(func(req *model.PaymentTransition) bool {
					return req.Status == constant.PaymentStatusFailed && req.ResultCode == nil
				})).Return(nil).Once()
				f.txRepo.On("CommitTx", tx).Return(nil).Once()
			},
		},
		{
			name:   "noop: callback after a terminal state",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), payload: cancelledCallback},
			mockCall: func(f fields) {
				tx := &sqlx.Tx{}
				settled := pending()
				settled.Status = constant.PaymentStatusSucceeded
				f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Once()
				f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).Return(settled, nil).Once()
				f.txRepo.On("RollbackTx", tx).Return(nil).Once()
			},
		},
		{
			name:   "noop: unknown checkout request",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), payload: successCallback},
			mockCall: func(f fields) {
				tx := &sqlx.Tx{}
				f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Once()
				f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).Return(nil, nil).Once()
				f.txRepo.On("RollbackTx", tx).Return(nil).Once()
			},
		},
		{
			name:   "noop: malformed payload",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), payload: `{"Body":`},
		},
		{
			name:   "noop: payload without checkout request id",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), payload: `{"Body":{"stkCallback":{"ResultCode":0}}}`},
		},
		{
			name:   "swallowed: store error while updating",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), payload: successCallback},
			mockCall: func(f fields) {
				tx := &sqlx.Tx{}
				f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Once()
				f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).Return(pending(), nil).Once()
				f.paymentRepo.On("UpdateStatusTx", mock.Anything, tx, mock.Anything).Return(errors.New("lock wait timeout")).Once()
				f.txRepo.On("RollbackTx", tx).Return(nil).Once()
			},
		},
		{
			name:   "swallowed: cannot begin transaction",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), payload: successCallback},
			mockCall: func(f fields) {
				f.txRepo.On("BeginTx", mock.Anything).Return(nil, errors.New("too many connections")).Once()
				f.txRepo.On("RollbackTx", mock.Anything).Return(nil).Maybe()
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if tt.mockCall != nil {
				tt.mockCall(tt.fields)
			}

			got := tt.fields.app().HandleCallback(tt.args.ctx, []byte(tt.args.payload))
			assert.Equal(t, ack, got)
		})
	}
}

// A second callback for the same request must leave the first outcome in place.
func TestPaymentApp_HandleCallback_SecondCallbackIsNoop(t *testing.T) {
	f := newFields(t, config.VerifyCredentialsEcho)
	state := pending()
	tx := &sqlx.Tx{}

	f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Twice()
	f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).
		Return(func(context.Context, *sqlx.Tx, string) *model.PaymentEntity {
			current := *state
			return &current
		}, nil).Twice()
	f.paymentRepo.On("UpdateStatusTx", mock.Anything, tx, mock.Anything).
		Run(func(args mock.Arguments) {
			req := args.Get(2).(*model.PaymentTransition)
			state.Status = req.Status
			state.ResultCode = req.ResultCode
		}).Return(nil).Once()
	f.txRepo.On("CommitTx", tx).Return(nil).Once()
	f.txRepo.On("RollbackTx", tx).Return(nil).Once()

	app := f.app()
	app.HandleCallback(context.Background(), []byte(successCallback))
	app.HandleCallback(context.Background(), []byte(cancelledCallback))

	assert.Equal(t, constant.PaymentStatusSucceeded, state.Status)
	require.NotNil(t, state.ResultCode)
	assert.Equal(t, 0, *state.ResultCode)
}

func TestPaymentApp_Verify(t *testing.T) {
	settledBody := `{"ResponseCode":"0","ResponseDescription":"The service request has been accepted successsfully",` +
		`"MerchantRequestID":"29115-34620561-1","CheckoutRequestID":"ws_CO_191220191020363925","ResultCode":"1032","ResultDesc":"Request cancelled by user"}`
	openBody := `{"ResponseCode":"0","ResponseDescription":"accepted","CheckoutRequestID":"ws_CO_191220191020363925"}`
	processingBody := `{"ResponseCode":"0","CheckoutRequestID":"ws_CO_191220191020363925","ResultCode":"4999","ResultDesc":"The transaction is still under processing"}`

	type args struct {
		ctx context.Context
		req *model.VerifyPaymentRequest
	}
	tests := []struct {
		name     string
		fields   fields
		args     args
		mockCall func(f fields, t *testing.T)
		want     string
		wantErr  bool
		errCode  constant.ErrorType
		details  string
	}{
		{
			name:   "success: echoed credentials, settled result reconciles local state",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args: args{ctx: context.Background(), req: &model.VerifyPaymentRequest{
				Password: "pw-1", CheckoutRequestID: checkoutID, Timestamp: "20240102130000",
			}},
			mockCall: func(f fields, t *testing.T) {
				tx := &sqlx.Tx{}
				f.gateway.On("QueryStatus", mock.Anything, "pw-1", checkoutID, "20240102130000").Return(queryResult(t, settledBody), nil).Once()
				f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Once()
				f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).Return(pending(), nil).Once()
				f.paymentRepo.On("UpdateStatusTx", mock.Anything, tx, mock.MatchedBy(func(req *model.PaymentTransition) bool {
					return req.Status == constant.PaymentStatusFailed && *req.ResultCode == 1032 && req.Source == "verify"
				})).Return(nil).Once()
				f.txRepo.On("CommitTx", tx).Return(nil).Once()
			},
			want: settledBody,
		},
		{
			name:   "success: still processing leaves the request pending",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args: args{ctx: context.Background(), req: &model.VerifyPaymentRequest{
				Password: "pw-1", CheckoutRequestID: checkoutID, Timestamp: "20240102130000",
			}},
			mockCall: func(f fields, t *testing.T) {
				f.gateway.On("QueryStatus", mock.Anything, "pw-1", checkoutID, "20240102130000").Return(queryResult(t, processingBody), nil).Once()
			},
			want: processingBody,
		},
		{
			name:   "success: verify after a terminal callback is a no-op",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args: args{ctx: context.Background(), req: &model.VerifyPaymentRequest{
				Password: "pw-1", CheckoutRequestID: checkoutID, Timestamp: "20240102130000",
			}},
			mockCall: func(f fields, t *testing.T) {
				tx := &sqlx.Tx{}
				paid := pending()
				paid.Status = constant.PaymentStatusSucceeded
				f.gateway.On("QueryStatus", mock.Anything, "pw-1", checkoutID, "20240102130000").Return(queryResult(t, settledBody), nil).Once()
				f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Once()
				f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).Return(paid, nil).Once()
				f.txRepo.On("RollbackTx", tx).Return(nil).Once()
			},
			want: settledBody,
		},
		{
			name:   "success: fresh policy ignores the echoed pair",
			fields: newFields(t, config.VerifyCredentialsFresh),
			args: args{ctx: context.Background(), req: &model.VerifyPaymentRequest{
				Password: "stale", CheckoutRequestID: checkoutID, Timestamp: "20200101000000",
			}},
			mockCall: func(f fields, t *testing.T) {
				f.gateway.On("Credentials", mock.Anything).Return("pw-fresh", "20240102140000").Once()
				f.gateway.On("QueryStatus", mock.Anything, "pw-fresh", checkoutID, "20240102140000").Return(queryResult(t, openBody), nil).Once()
			},
			want: openBody,
		},
		{
			name:   "success: missing pair is derived",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), req: &model.VerifyPaymentRequest{CheckoutRequestID: checkoutID}},
			mockCall: func(f fields, t *testing.T) {
				f.gateway.On("Credentials", mock.Anything).Return("pw-fresh", "20240102140000").Once()
				f.gateway.On("QueryStatus", mock.Anything, "pw-fresh", checkoutID, "20240102140000").Return(queryResult(t, openBody), nil).Once()
			},
			want: openBody,
		},
		{
			name:   "success: reconcile failure is not surfaced",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args: args{ctx: context.Background(), req: &model.VerifyPaymentRequest{
				Password: "pw-1", CheckoutRequestID: checkoutID, Timestamp: "20240102130000",
			}},
			mockCall: func(f fields, t *testing.T) {
				f.gateway.On("QueryStatus", mock.Anything, "pw-1", checkoutID, "20240102130000").Return(queryResult(t, settledBody), nil).Once()
				f.txRepo.On("BeginTx", mock.Anything).Return(nil, errors.New("db down")).Once()
				f.txRepo.On("RollbackTx", mock.Anything).Return(nil).Maybe()
			},
			want: settledBody,
		},
		{
			name:    "error: missing checkout request id",
			fields:  newFields(t, config.VerifyCredentialsEcho),
			args:    args{ctx: context.Background(), req: &model.VerifyPaymentRequest{Password: "pw", Timestamp: "20240102130000"}},
			wantErr: true,
			errCode: constant.ErrInvalidRequest,
		},
		{
			name:   "error: gateway still processing",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args: args{ctx: context.Background(), req: &model.VerifyPaymentRequest{
				Password: "pw-1", CheckoutRequestID: checkoutID, Timestamp: "20240102130000",
			}},
			mockCall: func(f fields, t *testing.T) {
				f.gateway.On("QueryStatus", mock.Anything, "pw-1", checkoutID, "20240102130000").
					Return(nil, &mpesa.GatewayRequestError{Operation: "stkpushquery", StatusCode: 500, Body: `{"errorCode":"500.001.1001","errorMessage":"The transaction is being processed"}`}).Once()
			},
			wantErr: true,
			errCode: constant.ErrGatewayRequest,
			details: "The transaction is being processed",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if tt.mockCall != nil {
				tt.mockCall(tt.fields, t)
			}

			got, err := tt.fields.app().Verify(tt.args.ctx, tt.args.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				ce := assertErrCode(t, err, tt.errCode)
				if tt.details != "" {
					assert.Equal(t, tt.details, ce.Details())
				}
				return
			}
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestPaymentApp_Reconcile(t *testing.T) {
	settledBody := `{"ResponseCode":"0","CheckoutRequestID":"ws_CO_191220191020363925","ResultCode":"0","ResultDesc":"The service request is processed successfully."}`
	openBody := `{"ResponseCode":"0","CheckoutRequestID":"ws_CO_191220191020363925"}`
	processingBody := `{"ResponseCode":"0","CheckoutRequestID":"ws_CO_191220191020363925","ResultCode":"4999","ResultDesc":"The transaction is still under processing"}`
	issuedAt := time.Date(2024, 1, 2, 13, 0, 0, 0, time.UTC)

	type args struct {
		ctx               context.Context
		checkoutRequestID string
	}
	tests := []struct {
		name       string
		fields     fields
		args       args
		mockCall   func(f fields, t *testing.T)
		wantStatus constant.PaymentStatus
		wantErr    bool
		errCode    constant.ErrorType
	}{
		{
			name:   "success: pending request settled with the initiation credentials",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), checkoutRequestID: checkoutID},
			mockCall: func(f fields, t *testing.T) {
				tx := &sqlx.Tx{}
				settled := pending()
				settled.Status = constant.PaymentStatusSucceeded
				f.paymentRepo.On("GetByCheckoutID", mock.Anything, checkoutID).Return(pending(), nil).Once()
				f.gateway.On("Credentials", mock.MatchedBy(func(at time.Time) bool { return at.Equal(issuedAt) })).Return("pw-1", "20240102130000").Once()
				f.gateway.On("QueryStatus", mock.Anything, "pw-1", checkoutID, "20240102130000").Return(queryResult(t, settledBody), nil).Once()
				f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Once()
				f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).Return(pending(), nil).Once()
				f.paymentRepo.On("UpdateStatusTx", mock.Anything, tx, mock.MatchedBy(func(req *model.PaymentTransition) bool {
					return req.Status == constant.PaymentStatusSucceeded && req.Source == "reconcile"
				})).Return(nil).Once()
				f.txRepo.On("CommitTx", tx).Return(nil).Once()
				f.paymentRepo.On("GetByCheckoutID", mock.Anything, checkoutID).Return(settled, nil).Once()
			},
			wantStatus: constant.PaymentStatusSucceeded,
		},
		{
			name:   "success: fresh policy derives new credentials",
			fields: newFields(t, config.VerifyCredentialsFresh),
			args:   args{ctx: context.Background(), checkoutRequestID: checkoutID},
			mockCall: func(f fields, t *testing.T) {
				f.paymentRepo.On("GetByCheckoutID", mock.Anything, checkoutID).Return(pending(), nil).Once()
				f.gateway.On("Credentials", mock.MatchedBy(func(at time.Time) bool { return !at.Equal(issuedAt) })).Return("pw-2", "20240102140000").Once()
				f.gateway.On("QueryStatus", mock.Anything, "pw-2", checkoutID, "20240102140000").Return(queryResult(t, openBody), nil).Once()
			},
			wantStatus: constant.PaymentStatusPending,
		},
		{
			name:   "success: still processing upstream stays pending",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), checkoutRequestID: checkoutID},
			mockCall: func(f fields, t *testing.T) {
				f.paymentRepo.On("GetByCheckoutID", mock.Anything, checkoutID).Return(pending(), nil).Once()
				f.gateway.On("Credentials", mock.Anything).Return("pw-1", "20240102130000").Once()
				f.gateway.On("QueryStatus", mock.Anything, "pw-1", checkoutID, "20240102130000").Return(queryResult(t, processingBody), nil).Once()
			},
			wantStatus: constant.PaymentStatusPending,
		},
		{
			name:   "success: already settled request skips the gateway",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), checkoutRequestID: checkoutID},
			mockCall: func(f fields, t *testing.T) {
				failed := pending()
				failed.Status = constant.PaymentStatusFailed
				f.paymentRepo.On("GetByCheckoutID", mock.Anything, checkoutID).Return(failed, nil).Once()
			},
			wantStatus: constant.PaymentStatusFailed,
		},
		{
			name:   "error: unknown checkout request",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), checkoutRequestID: "ws_CO_missing"},
			mockCall: func(f fields, t *testing.T) {
				f.paymentRepo.On("GetByCheckoutID", mock.Anything, "ws_CO_missing").Return(nil, nil).Once()
			},
			wantErr: true,
			errCode: constant.ErrNotFound,
		},
		{
			name:   "error: gateway failure",
			fields: newFields(t, config.VerifyCredentialsEcho),
			args:   args{ctx: context.Background(), checkoutRequestID: checkoutID},
			mockCall: func(f fields, t *testing.T) {
				f.paymentRepo.On("GetByCheckoutID", mock.Anything, checkoutID).Return(pending(), nil).Once()
				f.gateway.On("Credentials", mock.Anything).Return("pw-1", "20240102130000").Once()
				f.gateway.On("QueryStatus", mock.Anything, "pw-1", checkoutID, "20240102130000").
					Return(nil, &mpesa.GatewayAuthError{Err: errors.New("dial tcp: i/o timeout")}).Once()
			},
			wantErr: true,
			errCode: constant.ErrGatewayAuth,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if tt.mockCall != nil {
				tt.mockCall(tt.fields, t)
			}

			got, err := tt.fields.app().Reconcile(tt.args.ctx, tt.args.checkoutRequestID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Reconcile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				assertErrCode(t, err, tt.errCode)
				return
			}
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, checkoutID, got.CheckoutRequestID)
		})
	}
}

func TestPaymentApp_GetStatus(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newFields(t, config.VerifyCredentialsEcho)
		f.paymentRepo.On("GetByCheckoutID", mock.Anything, checkoutID).Return(pending(), nil).Once()

		got, err := f.app().GetStatus(context.Background(), checkoutID)
		require.NoError(t, err)
		assert.Equal(t, constant.PaymentStatusPending, got.Status)
		assert.Equal(t, "254712345678", got.PhoneNumber)
		assert.True(t, got.Amount.Equal(decimal.NewFromInt(100)))
	})

	t.Run("not found", func(t *testing.T) {
		f := newFields(t, config.VerifyCredentialsEcho)
		f.paymentRepo.On("GetByCheckoutID", mock.Anything, "nope").Return(nil, nil).Once()

		_, err := f.app().GetStatus(context.Background(), "nope")
		assertErrCode(t, err, constant.ErrNotFound)
	})

	t.Run("store error", func(t *testing.T) {
		f := newFields(t, config.VerifyCredentialsEcho)
		f.paymentRepo.On("GetByCheckoutID", mock.Anything, checkoutID).Return(nil, errors.New("db down")).Once()

		_, err := f.app().GetStatus(context.Background(), checkoutID)
		assertErrCode(t, err, constant.ErrInternal)
	})
}

func TestPaymentApp_InFlightQueryDoesNotBlockCallback(t *testing.T) {
	f := newFields(t, config.VerifyCredentialsEcho)
	tx := &sqlx.Tx{}
	state := pending()

	f.paymentRepo.On("GetByCheckoutID", mock.Anything, checkoutID).Return(func(context.Context, string) *model.PaymentEntity {
		cp := *state
		return &cp
	}, nil)
	f.gateway.On("Credentials", mock.Anything).Return("pw-1", "20240102130000").Once()
	f.gateway.On("QueryStatus", mock.Anything, "pw-1", checkoutID, "20240102130000").
		Return(queryResult(t, `{"ResultCode":"4999","ResultDesc":"The transaction is still under processing"}`), nil).Once()
	f.txRepo.On("BeginTx", mock.Anything).Return(tx, nil).Once()
	f.paymentRepo.On("GetByCheckoutIDForUpdateTx", mock.Anything, tx, checkoutID).Return(func(context.Context, *sqlx.Tx, string) *model.PaymentEntity {
		cp := *state
		return &cp
	}, nil).Once()
	f.paymentRepo.On("UpdateStatusTx", mock.Anything, tx, mock.AnythingOfType("*model.PaymentTransition")).
		Run(func(args mock.Arguments) {
			req := args.Get(2).(*model.PaymentTransition)
			state.Status = req.Status
			state.ResultCode = req.ResultCode
		}).Return(nil).Once()
	f.txRepo.On("CommitTx", tx).Return(nil).Once()

	app := f.app()

	got, err := app.Reconcile(context.Background(), checkoutID)
	require.NoError(t, err)
	assert.Equal(t, constant.PaymentStatusPending, got.Status)

	app.HandleCallback(context.Background(), []byte(successCallback))
	assert.Equal(t, constant.PaymentStatusSucceeded, state.Status)
}
