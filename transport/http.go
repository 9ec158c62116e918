package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	eventapp "github.com/muhammadheryan/event-ticket/application/event"
	paymentapp "github.com/muhammadheryan/event-ticket/application/payment"
	userapp "github.com/muhammadheryan/event-ticket/application/user"
	"github.com/muhammadheryan/event-ticket/cmd/config"
	"github.com/muhammadheryan/event-ticket/constant"
	"github.com/muhammadheryan/event-ticket/model"
	utilsContext "github.com/muhammadheryan/event-ticket/utils/context"
	"github.com/muhammadheryan/event-ticket/utils/errors"
	"github.com/muhammadheryan/event-ticket/utils/logger"
	validatorx "github.com/muhammadheryan/event-ticket/utils/validator"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// callbacks are small; anything larger is truncated and treated as malformed
const maxCallbackBytes = 1 << 20

type RestHandler struct {
	UserApp    userapp.UserApp
	EventApp   eventapp.EventApp
	PaymentApp paymentapp.PaymentApp
}

func NewTransport(cfg *config.Config, UserApp userapp.UserApp, EventApp eventapp.EventApp, PaymentApp paymentapp.PaymentApp) http.Handler {
	router := mux.NewRouter()

	rh := &RestHandler{
		UserApp:    UserApp,
		EventApp:   EventApp,
		PaymentApp: PaymentApp,
	}

	// Swagger UI and metrics
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/", rh.Health).Methods(http.MethodGet)

	// Users
	router.HandleFunc("/api/users/register", rh.Register).Methods(http.MethodPost)
	router.HandleFunc("/api/users/login", rh.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/users/logout", rh.Logout).Methods(http.MethodPost)

	// Events
	router.HandleFunc("/api/events", rh.ListEvents).Methods(http.MethodGet)
	router.HandleFunc("/api/events", rh.CreateEvent).Methods(http.MethodPost)
	router.HandleFunc("/api/events/{id:[0-9]+}", rh.GetEvent).Methods(http.MethodGet)

	// Payments
	router.HandleFunc("/payment", rh.InitiatePayment).Methods(http.MethodPost)
	router.HandleFunc("/payment/verify", rh.VerifyPayment).Methods(http.MethodPost)
	router.HandleFunc("/payment/{checkoutRequestID}", rh.GetPaymentStatus).Methods(http.MethodGet)
	router.HandleFunc("/callback_url", rh.PaymentCallback).Methods(http.MethodPost)

	// internal routes, called by the reconcile consumer
	internal := router.PathPrefix("/internal/v1").Subrouter()
	internal.Use(InternalMiddleware(cfg.Internal.APIKey))
	internal.HandleFunc("/payment/{checkoutRequestID}/reconcile", rh.ReconcilePayment).Methods(http.MethodPost)

	// unmatched paths and methods answer with the same JSON error body as handlers
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(notFound)

	// middleware
	router.Use(LoggingMiddleware())
	router.Use(AuthMiddleware(UserApp))

	return RequestIDMiddleware()(CORSMiddleware(cfg.Server.AllowedOrigins)(router))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, errors.SetCustomError(constant.ErrNotFound))
}

// Health handler
// @Summary Health check
// @Tags Health
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (s *RestHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Event Management API running!")
}

// Register handler
// @Summary Register user
// @Description Register a new user with name, email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Register Request"
// @Success 201 {object} model.RegisterResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/users/register [post]
func (s *RestHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomErrorWithDetails(constant.ErrInvalidRequest, err.Error()))
		return
	}

	res, err := s.UserApp.Register(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeCreated(w, res)
}

// Login handler
// @Summary Login user
// @Description Login with email and password and receive a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Login Request"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/users/login [post]
func (s *RestHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomErrorWithDetails(constant.ErrInvalidRequest, err.Error()))
		return
	}

	res, err := s.UserApp.Login(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// Logout handler
// @Summary Logout user
// @Description Revoke the session behind the bearer token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.MessageResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/users/logout [post]
func (s *RestHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.UserApp.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, model.MessageResponse{Message: "Logout successful"})
}

// ListEvents handler
// @Summary List events
// @Tags Events
// @Produce json
// @Success 200 {array} model.EventEntity
// @Failure 500 {object} model.ErrorResponse
// @Router /api/events [get]
func (s *RestHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	res, err := s.EventApp.ListEvents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// GetEvent handler
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} model.EventEntity
// @Failure 404 {object} model.ErrorResponse
// @Router /api/events/{id} [get]
func (s *RestHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, errors.SetCustomError(constant.ErrNotFound))
		return
	}

	res, err := s.EventApp.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// CreateEvent handler
// @Summary Create event
// @Description Create an event owned by the authenticated user
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateEventRequest true "Create Event Request"
// @Success 201 {object} model.CreateEventResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/events [post]
func (s *RestHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomErrorWithDetails(constant.ErrInvalidRequest, err.Error()))
		return
	}

	userID, ok := utilsContext.GetUserID(ctx)
	if !ok {
		writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
		return
	}
	req.UserID = userID

	res, err := s.EventApp.CreateEvent(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeCreated(w, res)
}

// InitiatePayment handler
// @Summary Initiate STK push
// @Description Send an M-Pesa payment prompt to the given phone number
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body model.InitiatePaymentRequest true "Payment Request"
// @Success 200 {object} model.InitiatePaymentResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /payment [post]
func (s *RestHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req model.InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	res, err := s.PaymentApp.Initiate(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// VerifyPayment handler
// @Summary Query STK push status
// @Description Ask the gateway for the status of a checkout request and return its reply unchanged
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body model.VerifyPaymentRequest true "Verify Request"
// @Success 200 {object} object
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /payment/verify [post]
func (s *RestHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	res, err := s.PaymentApp.Verify(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeRaw(w, res)
}

// GetPaymentStatus handler
// @Summary Get stored payment status
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param checkoutRequestID path string true "Checkout Request ID"
// @Success 200 {object} model.PaymentStatusResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /payment/{checkoutRequestID} [get]
func (s *RestHandler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	res, err := s.PaymentApp.GetStatus(r.Context(), mux.Vars(r)["checkoutRequestID"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// PaymentCallback handler
// @Summary STK push callback
// @Description Receives the gateway's payment result. Always acknowledged.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body model.StkCallbackEnvelope true "Callback"
// @Success 200 {object} model.CallbackAck
// @Router /callback_url [post]
func (s *RestHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBytes))
	if err != nil {
		logger.Warn("[PaymentCallback] err read body", zap.String("error", err.Error()))
	}

	writeSuccess(w, s.PaymentApp.HandleCallback(r.Context(), body))
}

// ReconcilePayment handler
// @Summary Reconcile a pending payment
// @Tags Internal
// @Produce json
// @Security BearerAuth
// @Param checkoutRequestID path string true "Checkout Request ID"
// @Success 200 {object} model.PaymentStatusResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /internal/v1/payment/{checkoutRequestID}/reconcile [post]
func (s *RestHandler) ReconcilePayment(w http.ResponseWriter, r *http.Request) {
	res, err := s.PaymentApp.Reconcile(r.Context(), mux.Vars(r)["checkoutRequestID"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}
