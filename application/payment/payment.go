package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/muhammadheryan/event-ticket/cmd/config"
	"github.com/muhammadheryan/event-ticket/constant"
	"github.com/muhammadheryan/event-ticket/model"
	paymentrepo "github.com/muhammadheryan/event-ticket/repository/payment"
	redisrepo "github.com/muhammadheryan/event-ticket/repository/redis"
	txrepo "github.com/muhammadheryan/event-ticket/repository/tx"
	"github.com/muhammadheryan/event-ticket/thirdparty/mpesa"
	"github.com/muhammadheryan/event-ticket/thirdparty/rabbitmq"
	cerr "github.com/muhammadheryan/event-ticket/utils/errors"
	"github.com/muhammadheryan/event-ticket/utils/logger"
	"github.com/muhammadheryan/event-ticket/utils/metrics"
	validatorx "github.com/muhammadheryan/event-ticket/utils/validator"
	"go.uber.org/zap"
)

const (
	sourceCallback  = "callback"
	sourceVerify    = "verify"
	sourceReconcile = "reconcile"
)

type PaymentApp interface {
	Initiate(ctx context.Context, req *model.InitiatePaymentRequest) (*model.InitiatePaymentResponse, error)
	// HandleCallback never fails: the gateway always receives an acknowledgement.
	HandleCallback(ctx context.Context, payload []byte) *model.CallbackAck
	Verify(ctx context.Context, req *model.VerifyPaymentRequest) (json.RawMessage, error)
	Reconcile(ctx context.Context, checkoutRequestID string) (*model.PaymentStatusResponse, error)
	GetStatus(ctx context.Context, checkoutRequestID string) (*model.PaymentStatusResponse, error)
}

// ReconcilePublisher schedules a delayed status check for a pending request.
type ReconcilePublisher interface {
	PublishPaymentReconcile(msg rabbitmq.PaymentReconcileMessage) error
}

type paymentAppImpl struct {
	config      *config.Config
	txRepo      txrepo.TxRepository
	paymentRepo paymentrepo.PaymentRepository
	redisRepo   redisrepo.Repository
	gateway     mpesa.Gateway
	publisher   ReconcilePublisher
	loc         *time.Location
	now         func() time.Time
}

// NewPaymentApp wires the orchestrator. redisRepo and publisher may be nil, which
// disables push throttling and scheduled reconciliation respectively.
func NewPaymentApp(config *config.Config, txRepo txrepo.TxRepository, paymentRepo paymentrepo.PaymentRepository, redisRepo redisrepo.Repository, gateway mpesa.Gateway, publisher ReconcilePublisher) PaymentApp {
	loc, err := time.LoadLocation(config.Mpesa.TimestampLocation)
	if err != nil {
		loc = time.UTC
	}
	return &paymentAppImpl{
		config:      config,
		txRepo:      txRepo,
		paymentRepo: paymentRepo,
		redisRepo:   redisRepo,
		gateway:     gateway,
		publisher:   publisher,
		loc:         loc,
		now:         time.Now,
	}
}

func (s *paymentAppImpl) Initiate(ctx context.Context, req *model.InitiatePaymentRequest) (*model.InitiatePaymentResponse, error) {
	if err := validatorx.ValidateStruct(req); err != nil {
		metrics.TrackInitiation("invalid")
		return nil, cerr.SetCustomErrorWithDetails(constant.ErrInvalidRequest, err.Error())
	}
	if !req.Amount.IsInteger() {
		metrics.TrackInitiation("invalid")
		return nil, cerr.SetCustomErrorWithDetails(constant.ErrInvalidRequest, "amount must be a whole number")
	}

	phone := mpesa.NormalizePhone(req.PhoneNumber)
	if err := s.throttle(ctx, phone); err != nil {
		metrics.TrackInitiation("throttled")
		return nil, err
	}

	push, err := s.gateway.InitiatePush(ctx, phone, req.Amount)
	if err != nil {
		metrics.TrackInitiation("gateway_error")
		return nil, gatewayError("[Initiate]", err)
	}

	_, err = s.paymentRepo.Create(ctx, &model.PaymentEntity{
		CheckoutRequestID: push.CheckoutRequestID,
		MerchantRequestID: push.MerchantRequestID,
		PhoneNumber:       phone,
		Amount:            req.Amount,
		ShortCode:         s.config.Mpesa.ShortCode,
		Timestamp:         push.Timestamp,
		Status:            constant.PaymentStatusPending,
	})
	if err != nil {
		// the customer already has the prompt; keep the id in the log for manual follow up
		logger.Error("[Initiate] err paymentRepo.Create",
			zap.String("checkout_request_id", push.CheckoutRequestID),
			zap.String("error", err.Error()))
		metrics.TrackInitiation("store_error")
		return nil, cerr.SetCustomErrorWithDetails(constant.ErrInternal, err.Error())
	}
	metrics.TrackInitiation("pending")

	s.scheduleReconcile(push.CheckoutRequestID)

	return &model.InitiatePaymentResponse{
		MerchantRequestID:   push.MerchantRequestID,
		CheckoutRequestID:   push.CheckoutRequestID,
		ResponseCode:        push.ResponseCode,
		ResponseDescription: push.ResponseDescription,
		CustomerMessage:     push.CustomerMessage,
		Password:            push.Password,
		Timestamp:           push.Timestamp,
	}, nil
}

func (s *paymentAppImpl) HandleCallback(ctx context.Context, payload []byte) *model.CallbackAck {
	ack := &model.CallbackAck{ResultCode: constant.CallbackAckCode, ResultDesc: constant.CallbackAckDesc}

	var envelope model.StkCallbackEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		logger.Warn("[HandleCallback] malformed payload", zap.String("error", err.Error()))
		metrics.TrackCallback("malformed", "ignored")
		return ack
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		logger.Warn("[HandleCallback] missing CheckoutRequestID")
		metrics.TrackCallback("malformed", "ignored")
		return ack
	}

	transition := &model.PaymentTransition{
		CheckoutRequestID: cb.CheckoutRequestID,
		Status:            constant.PaymentStatusFailed,
		ResultDesc:        cb.ResultDesc,
		Source:            sourceCallback,
	}
	if code, ok := cb.Code(); ok {
		transition.ResultCode = &code
		if code == constant.CallbackResultSuccess {
			transition.Status = constant.PaymentStatusSucceeded
			transition.ReceiptNumber = cb.MetadataString("MpesaReceiptNumber")
		}
	}

	outcome, err := s.transition(ctx, transition)
	if err != nil {
		logger.Error("[HandleCallback] err transition",
			zap.String("checkout_request_id", cb.CheckoutRequestID),
			zap.String("error", err.Error()))
		metrics.TrackCallback(string(transition.Status), "error")
		return ack
	}

	logger.Info("[HandleCallback] processed",
		zap.String("checkout_request_id", cb.CheckoutRequestID),
		zap.String("status", string(transition.Status)),
		zap.String("outcome", string(outcome)))
	metrics.TrackCallback(string(transition.Status), string(outcome))
	return ack
}

func (s *paymentAppImpl) Verify(ctx context.Context, req *model.VerifyPaymentRequest) (json.RawMessage, error) {
	if err := validatorx.ValidateStruct(req); err != nil {
		return nil, cerr.SetCustomErrorWithDetails(constant.ErrInvalidRequest, err.Error())
	}

	password, timestamp := req.Password, req.Timestamp
	if s.config.Mpesa.VerifyCredentials == config.VerifyCredentialsFresh || password == "" || timestamp == "" {
		password, timestamp = s.gateway.Credentials(s.now())
	}

	res, err := s.gateway.QueryStatus(ctx, password, req.CheckoutRequestID, timestamp)
	if err != nil {
		return nil, gatewayError("[Verify]", err)
	}

	if settledByQuery(res.Response) {
		if _, err := s.transition(ctx, queryTransition(req.CheckoutRequestID, res.Response, sourceVerify)); err != nil {
			logger.Error("[Verify] err transition",
				zap.String("checkout_request_id", req.CheckoutRequestID),
				zap.String("error", err.Error()))
		}
	}

	return res.Raw, nil
}

// Reconcile settles a pending request from the gateway's status query. Requests
// already terminal, or still unresolved upstream, are returned unchanged.
func (s *paymentAppImpl) Reconcile(ctx context.Context, checkoutRequestID string) (*model.PaymentStatusResponse, error) {
	payment, err := s.getPayment(ctx, "[Reconcile]", checkoutRequestID)
	if err != nil {
		return nil, err
	}
	if payment.Status.IsTerminal() {
		return toStatusResponse(payment), nil
	}

	password, timestamp := s.credentialsFor(payment)
	res, err := s.gateway.QueryStatus(ctx, password, checkoutRequestID, timestamp)
	if err != nil {
		return nil, gatewayError("[Reconcile]", err)
	}
	if !settledByQuery(res.Response) {
		return toStatusResponse(payment), nil
	}

	if _, err := s.transition(ctx, queryTransition(checkoutRequestID, res.Response, sourceReconcile)); err != nil {
		logger.Error("[Reconcile] err transition", zap.String("error", err.Error()))
		return nil, cerr.SetCustomErrorWithDetails(constant.ErrInternal, err.Error())
	}

	return s.GetStatus(ctx, checkoutRequestID)
}

func (s *paymentAppImpl) GetStatus(ctx context.Context, checkoutRequestID string) (*model.PaymentStatusResponse, error) {
	payment, err := s.getPayment(ctx, "[GetStatus]", checkoutRequestID)
	if err != nil {
		return nil, err
	}
	return toStatusResponse(payment), nil
}

func (s *paymentAppImpl) getPayment(ctx context.Context, op, checkoutRequestID string) (*model.PaymentEntity, error) {
	payment, err := s.paymentRepo.GetByCheckoutID(ctx, checkoutRequestID)
	if err != nil {
		logger.Error(op+" err paymentRepo.GetByCheckoutID", zap.String("error", err.Error()))
		return nil, cerr.SetCustomErrorWithDetails(constant.ErrInternal, err.Error())
	}
	if payment == nil {
		return nil, cerr.SetCustomError(constant.ErrNotFound)
	}
	return payment, nil
}

type transitionOutcome string

const (
	outcomeApplied   transitionOutcome = "applied"
	outcomeUnknown   transitionOutcome = "unknown"
	outcomeDuplicate transitionOutcome = "duplicate"
)

// transition moves a PENDING request to req.Status. The row stays locked until
// commit, so concurrent callback, verify and reconcile calls for one checkout
// request are applied one at a time and only the first terminal one wins.
func (s *paymentAppImpl) transition(ctx context.Context, req *model.PaymentTransition) (transitionOutcome, error) {
	tx, err := s.txRepo.BeginTx(ctx)
	if err != nil {
		return "", err
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.txRepo.RollbackTx(tx)
		}
	}()

	current, err := s.paymentRepo.GetByCheckoutIDForUpdateTx(ctx, tx, req.CheckoutRequestID)
	if err != nil {
		return "", err
	}
	if current == nil {
		logger.Info("[transition] unknown checkout request",
			zap.String("checkout_request_id", req.CheckoutRequestID),
			zap.String("source", req.Source))
		return outcomeUnknown, nil
	}
	if current.Status.IsTerminal() {
		logger.Info("[transition] already settled",
			zap.String("checkout_request_id", req.CheckoutRequestID),
			zap.String("status", string(current.Status)),
			zap.String("source", req.Source))
		return outcomeDuplicate, nil
	}

	if err := s.paymentRepo.UpdateStatusTx(ctx, tx, req); err != nil {
		return "", err
	}
	if err := s.txRepo.CommitTx(tx); err != nil {
		return "", err
	}
	committed = true

	metrics.TrackTransition(string(req.Status), req.Source)
	return outcomeApplied, nil
}

// throttle limits pushes per phone number. Redis failures let the push through.
func (s *paymentAppImpl) throttle(ctx context.Context, phone string) error {
	if s.redisRepo == nil || s.config.Mpesa.PushLimit <= 0 {
		return nil
	}

	count, err := s.redisRepo.IncrWindow(ctx, "stkpush:"+phone, s.config.Mpesa.PushWindow)
	if err != nil {
		logger.Warn("[Initiate] err redisRepo.IncrWindow", zap.String("error", err.Error()))
		return nil
	}
	if count > int64(s.config.Mpesa.PushLimit) {
		return cerr.SetCustomError(constant.ErrTooManyRequests)
	}
	return nil
}

func (s *paymentAppImpl) scheduleReconcile(checkoutRequestID string) {
	if s.publisher == nil {
		return
	}

	msg := rabbitmq.PaymentReconcileMessage{
		CheckoutRequestID: checkoutRequestID,
		ReconcileAt:       s.now().Add(s.config.Mpesa.ReconcileDelay),
	}
	if err := s.publisher.PublishPaymentReconcile(msg); err != nil {
		logger.Error("[Initiate] err publish payment reconcile",
			zap.String("checkout_request_id", checkoutRequestID),
			zap.String("error", err.Error()))
	}
}

// credentialsFor re-derives the pair used at initiation from the stored
// timestamp, unless the fresh policy is configured.
func (s *paymentAppImpl) credentialsFor(payment *model.PaymentEntity) (string, string) {
	if s.config.Mpesa.VerifyCredentials == config.VerifyCredentialsEcho && payment.Timestamp != "" {
		if at, err := time.ParseInLocation(mpesa.TimestampLayout, payment.Timestamp, s.loc); err == nil {
			return s.gateway.Credentials(at)
		}
	}
	return s.gateway.Credentials(s.now())
}

// settledByQuery reports whether a status query reply carries a final result.
// Replies without a code, or with an in-flight code, leave the request PENDING.
func settledByQuery(res mpesa.QueryResponse) bool {
	return res.ResultCode.Valid && !constant.IsQueryInFlight(res.ResultCode.Value)
}

func queryTransition(checkoutRequestID string, res mpesa.QueryResponse, source string) *model.PaymentTransition {
	code := res.ResultCode.Value
	status := constant.PaymentStatusFailed
	if code == constant.CallbackResultSuccess {
		status = constant.PaymentStatusSucceeded
	}
	return &model.PaymentTransition{
		CheckoutRequestID: checkoutRequestID,
		Status:            status,
		ResultCode:        &code,
		ResultDesc:        res.ResultDesc,
		Source:            source,
	}
}

func gatewayError(op string, err error) error {
	var authErr *mpesa.GatewayAuthError
	if errors.As(err, &authErr) {
		logger.Error(op+" err gateway auth", zap.String("error", err.Error()))
		return cerr.SetCustomErrorWithDetails(constant.ErrGatewayAuth, authErr.Detail())
	}

	var reqErr *mpesa.GatewayRequestError
	if errors.As(err, &reqErr) {
		logger.Error(op+" err gateway request", zap.String("error", err.Error()))
		return cerr.SetCustomErrorWithDetails(constant.ErrGatewayRequest, reqErr.Detail())
	}

	logger.Error(op+" err gateway", zap.String("error", err.Error()))
	return cerr.SetCustomErrorWithDetails(constant.ErrGatewayRequest, err.Error())
}

func toStatusResponse(p *model.PaymentEntity) *model.PaymentStatusResponse {
	return &model.PaymentStatusResponse{
		CheckoutRequestID: p.CheckoutRequestID,
		PhoneNumber:       p.PhoneNumber,
		Amount:            p.Amount,
		Status:            p.Status,
		ResultDesc:        p.ResultDesc,
		ReceiptNumber:     p.ReceiptNumber,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
