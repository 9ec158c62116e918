package payment

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/event-ticket/model"
)

type SQL struct {
	conn *sqlx.DB
}

type PaymentRepository interface {
	Create(ctx context.Context, data *model.PaymentEntity) (uint64, error)
	GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*model.PaymentEntity, error)
	// GetByCheckoutIDForUpdateTx locks the row until tx ends, serializing every
	// status change for the same checkout request.
	GetByCheckoutIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, checkoutRequestID string) (*model.PaymentEntity, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, req *model.PaymentTransition) error
}

func NewPaymentRepository(conn *sqlx.DB) PaymentRepository {
	return &SQL{conn: conn}
}

const (
	paymentColumns = `id, checkout_request_id, merchant_request_id, phone_number, amount, short_code, timestamp, status, result_code, result_desc, receipt_number, created_at, updated_at`

	insertPayment = `INSERT INTO payment_request (checkout_request_id, merchant_request_id, phone_number, amount, short_code, timestamp, status, result_desc, receipt_number, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, '', '', NOW())`
	getPaymentQuery       = `SELECT ` + paymentColumns + ` FROM payment_request WHERE checkout_request_id = ?`
	getPaymentForUpdate   = getPaymentQuery + ` FOR UPDATE`
	updatePaymentStatusTx = `UPDATE payment_request SET status = ?, result_code = ?, result_desc = ?, receipt_number = ?, updated_at = NOW() WHERE checkout_request_id = ?`
)

func (r *SQL) Create(ctx context.Context, data *model.PaymentEntity) (uint64, error) {
	res, err := r.conn.ExecContext(ctx, insertPayment,
		data.CheckoutRequestID, data.MerchantRequestID, data.PhoneNumber, data.Amount,
		data.ShortCode, data.Timestamp, data.Status)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByCheckoutID returns nil, nil when the checkout request is unknown.
func (r *SQL) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*model.PaymentEntity, error) {
	var entity model.PaymentEntity
	if err := r.conn.QueryRowxContext(ctx, getPaymentQuery, checkoutRequestID).StructScan(&entity); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

func (r *SQL) GetByCheckoutIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, checkoutRequestID string) (*model.PaymentEntity, error) {
	var entity model.PaymentEntity
	if err := tx.QueryRowxContext(ctx, getPaymentForUpdate, checkoutRequestID).StructScan(&entity); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

func (r *SQL) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, req *model.PaymentTransition) error {
	res, err := tx.ExecContext(ctx, updatePaymentStatusTx,
		req.Status, req.ResultCode, req.ResultDesc, req.ReceiptNumber, req.CheckoutRequestID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
