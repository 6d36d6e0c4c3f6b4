// File: internal/usecase/order_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/model"
	"consulting-payments/internal/domain/ports/adapter"
	"consulting-payments/internal/domain/ports/repository"
	"consulting-payments/internal/infra/logging"
	"consulting-payments/internal/infra/metrics"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

// checkoutAbandonedAfter is how long a PENDING order may go without any
// gateway record before reconciliation closes it as FAILED. Pre-registration
// happens before the member ever reaches the gateway, so a checkout abandoned
// at that point leaves no transaction to look up.
const checkoutAbandonedAfter = time.Hour

// compensateTimeout bounds the compensating cancel once it runs detached
// from the request that triggered it.
const compensateTimeout = 30 * time.Second

// VerifyResult is returned by the synchronous completion path.
type VerifyResult struct {
	Payment        *adapter.PaymentInfo
	ActiveServices []string
}

// OrderHistory pairs an order with its product for history views.
type OrderHistory struct {
	Order   *model.Order
	Product *model.Product
}

type OrderUseCase interface {
	// PreRegister reserves the expected charge for a product (minus an
	// optional coupon discount) and creates a PENDING order. No gateway
	// interaction happens here.
	PreRegister(ctx context.Context, productID, memberID int64, couponNumber string) (*model.Order, *model.Product, error)
	// Verify is the caller-driven completion path: it checks gateway ground
	// truth against the reserved amount and commits the completion atomically.
	Verify(ctx context.Context, impUID, merchantUID, couponNumber string) (*VerifyResult, error)
	// ProcessWebhook is the gateway-driven counterpart. Idempotent and safe
	// under duplicate or out-of-order delivery.
	ProcessWebhook(ctx context.Context, impUID, merchantUID, status string) error
	// ContractFreeService completes a 100%-discount order with no gateway
	// interaction at all.
	ContractFreeService(ctx context.Context, couponNumber string, productID, memberID int64) ([]string, error)
	// Reconcile re-derives a stuck PENDING order's terminal state from
	// gateway ground truth.
	Reconcile(ctx context.Context, merchantUID string) (*model.Order, error)
	// History endpoints.
	ListHistory(ctx context.Context, memberID int64) ([]*OrderHistory, error)
	GetHistory(ctx context.Context, memberID int64, orderID string) (*OrderHistory, error)
}

type orderUC struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	cancelLog repository.CancelLogRepository
	coupons   CouponUseCase
	contracts ContractUseCase
	gateway   adapter.PaymentGateway
	members   adapter.MemberDirectory
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewOrderUseCase(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	cancelLog repository.CancelLogRepository,
	coupons CouponUseCase,
	contracts ContractUseCase,
	gateway adapter.PaymentGateway,
	members adapter.MemberDirectory,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *orderUC {
	return &orderUC{
		orders:    orders,
		products:  products,
		cancelLog: cancelLog,
		coupons:   coupons,
		contracts: contracts,
		gateway:   gateway,
		members:   members,
		tm:        tm,
		log:       logger,
	}
}

func (u *orderUC) PreRegister(ctx context.Context, productID, memberID int64, couponNumber string) (*model.Order, *model.Product, error) {
	product, err := u.products.FindByID(ctx, nil, productID)
	if err != nil {
		return nil, nil, err
	}

	finalAmount := product.Price
	if couponNumber != "" {
		v, err := u.coupons.Valid(ctx, couponNumber, productID)
		if err != nil {
			return nil, nil, err
		}
		finalAmount -= v.DiscountAmount
	}
	if finalAmount <= 0 {
		// A fully discounted purchase must go through the free-contract path.
		return nil, nil, fmt.Errorf("%w: final amount is zero or below", domain.ErrInvalidArgument)
	}

	now := time.Now()
	order := &model.Order{
		ID:           ulid.Make().String(),
		MerchantUID:  model.NewMerchantUID(),
		State:        model.OrderStatePending,
		PaidAmount:   finalAmount,
		MemberID:     memberID,
		ProductID:    productID,
		CouponNumber: couponNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.orders.Save(ctx, nil, order); err != nil {
		return nil, nil, err
	}

	metrics.IncOrder("pending")
	u.log.Info().Int64("member_id", memberID).Int64("product_id", productID).
		Str("merchant_uid", order.MerchantUID).Int64("amount", finalAmount).
		Msg("order pre-registered")
	return order, product, nil
}

func (u *orderUC) Verify(ctx context.Context, impUID, merchantUID, couponNumber string) (*VerifyResult, error) {
	order, err := u.orders.FindByMerchantUID(ctx, nil, merchantUID)
	if err != nil {
		return nil, err
	}

	// Idempotency short-circuit: a webhook may have completed the order while
	// the caller was still in checkout. Both callers observe the same result.
	if order.State == model.OrderStateComplete {
		services, err := u.members.FindActiveServices(ctx, order.MemberID)
		if err != nil {
			return nil, err
		}
		return &VerifyResult{ActiveServices: services}, nil
	}
	if order.Terminal() {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrAlreadyProcessed, merchantUID, order.State)
	}

	// couponNumber is accepted for API compatibility; the coupon captured at
	// pre-registration is authoritative so the webhook path redeems it too.
	if couponNumber != "" && couponNumber != order.CouponNumber {
		return nil, fmt.Errorf("%w: coupon differs from pre-registration", domain.ErrInvalidArgument)
	}

	info, err := u.fetchPaidInfo(ctx, impUID, order)
	if err != nil {
		return nil, err
	}

	if err := u.completePaidOrder(ctx, order, info); err != nil {
		return nil, err
	}

	services, err := u.members.FindActiveServices(ctx, order.MemberID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Payment: info, ActiveServices: services}, nil
}

// fetchPaidInfo loads gateway ground truth and enforces the amount authority:
// the locally reserved amount is the only amount ever trusted.
func (u *orderUC) fetchPaidInfo(ctx context.Context, impUID string, order *model.Order) (*adapter.PaymentInfo, error) {
	info, err := u.gateway.GetPaymentInfo(ctx, impUID)
	if err != nil {
		return nil, err
	}
	if info.Status != adapter.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: gateway status %q", domain.ErrPaymentIncomplete, info.Status)
	}
	if info.Amount != order.PaidAmount {
		u.log.Warn().Str("merchant_uid", order.MerchantUID).
			Int64("expected", order.PaidAmount).Int64("reported", info.Amount).
			Msg("gateway amount differs from reserved amount")
		return nil, fmt.Errorf("%w: expected %d, gateway reports %d", domain.ErrAmountMismatch, order.PaidAmount, info.Amount)
	}
	return info, nil
}

// completePaidOrder is the single idempotent transition shared by verify,
// webhook and reconciliation. The gateway has already confirmed the charge, so
// any failure to commit locally triggers the compensating cancel.
func (u *orderUC) completePaidOrder(ctx context.Context, order *model.Order, info *adapter.PaymentInfo) error {
	txErr := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		won, err := u.orders.CompleteIfPending(ctx, tx, order.ID, info.ImpUID, info.CardName, info.CardNumber, info.PGProvider)
		if err != nil {
			return err
		}
		if !won {
			// A concurrent verify/webhook committed first; their contract
			// grant stands and this unit must not duplicate it.
			u.log.Info().Str("merchant_uid", order.MerchantUID).Msg("order already completed by concurrent handler")
			return nil
		}

		if order.CouponNumber != "" {
			if _, err := u.coupons.Use(ctx, tx, order.CouponNumber); err != nil {
				return fmt.Errorf("redeem coupon: %w", err)
			}
		}
		if err := u.contracts.Grant(ctx, tx, order.ProductID, order.MemberID, order.ID); err != nil {
			return fmt.Errorf("grant contract: %w", err)
		}
		return nil
	})
	if txErr == nil {
		order.State = model.OrderStateComplete
		order.ImpUID = info.ImpUID
		metrics.IncOrder("complete")
		u.log.Info().Str("merchant_uid", order.MerchantUID).Msg("order completed")
		return nil
	}

	// The charge exists at the gateway but could not be recorded here. Void
	// it rather than silently keeping the payer's money.
	u.compensate(ctx, order, info, txErr)
	return fmt.Errorf("%w: completing order %s: %v", domain.ErrOperationFailed, order.MerchantUID, txErr)
}

// compensate issues the gateway cancel and records it in its own transaction,
// independent of the one that just rolled back.
func (u *orderUC) compensate(ctx context.Context, order *model.Order, info *adapter.PaymentInfo, cause error) {
	metrics.IncCompensation()
	reason := "local commit failed after confirmed charge"

	// A cancelled request context may be the very reason the commit failed.
	// The cancel and its audit record must outlive the request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	cancelInfo, err := u.gateway.CancelPayment(ctx, info.ImpUID, order.MerchantUID, reason)
	if err != nil {
		// The money is still captured; the cancel log entry is what a manual
		// reconciliation run works from.
		u.log.Error().Err(err).Str("merchant_uid", order.MerchantUID).Str("imp_uid", info.ImpUID).
			Msg("compensating cancel failed at gateway")
	}
	cancelAmount := info.Amount
	if cancelInfo != nil && cancelInfo.CancelAmount > 0 {
		cancelAmount = cancelInfo.CancelAmount
	}

	logErr := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err == nil {
			if uerr := u.orders.UpdateState(ctx, tx, order.ID, model.OrderStateCancel, cancelAmount); uerr != nil {
				return uerr
			}
		}
		return u.cancelLog.Append(ctx, tx, &model.CancelLog{
			ID:          ulid.Make().String(),
			OrderID:     order.ID,
			MerchantUID: order.MerchantUID,
			ImpUID:      info.ImpUID,
			Amount:      cancelAmount,
			Reason:      reason,
			CauseText:   cause.Error(),
			CreatedAt:   time.Now(),
		})
	})
	if logErr != nil {
		u.log.Error().Err(logErr).Str("merchant_uid", order.MerchantUID).
			Msg("failed to record compensating cancellation")
		return
	}
	u.log.Warn().Str("merchant_uid", order.MerchantUID).Str("imp_uid", info.ImpUID).
		Int64("amount", cancelAmount).Msg("charge compensated")
}

func (u *orderUC) ProcessWebhook(ctx context.Context, impUID, merchantUID, status string) error {
	metrics.IncWebhook(status)
	log := logging.With(ctx, u.log)
	order, err := u.orders.FindByMerchantUID(ctx, nil, merchantUID)
	if err != nil {
		return err
	}

	switch status {
	case adapter.PaymentStatusPaid:
		if order.State == model.OrderStateComplete {
			log.Info().Msg("duplicate paid webhook ignored")
			return nil
		}
		if order.Terminal() {
			return fmt.Errorf("%w: paid webhook for %s order", domain.ErrAlreadyProcessed, order.State)
		}
		info, err := u.fetchPaidInfo(ctx, impUID, order)
		if err != nil {
			return err
		}
		return u.completePaidOrder(ctx, order, info)

	case adapter.PaymentStatusFailed:
		return u.handleFailed(ctx, order, impUID)

	case adapter.PaymentStatusCancelled:
		return u.handleCancelled(ctx, order, impUID)

	default:
		// Forward-compatible no-op: the gateway may add statuses this system
		// does not model yet.
		log.Warn().Str("status", status).Msg("unknown webhook status ignored")
		return nil
	}
}

func (u *orderUC) handleFailed(ctx context.Context, order *model.Order, impUID string) error {
	if order.State == model.OrderStateFailed {
		return nil
	}

	// Webhook bodies are unauthenticated; confirm against gateway truth.
	info, err := u.gateway.GetPaymentInfo(ctx, impUID)
	if err != nil {
		return err
	}
	if info.Status != adapter.PaymentStatusFailed {
		return fmt.Errorf("%w: gateway reports %q, not failed", domain.ErrPaymentIncomplete, info.Status)
	}

	if err := u.failOrder(ctx, order); err != nil {
		return err
	}
	u.log.Info().Str("merchant_uid", order.MerchantUID).Msg("order failed")
	return nil
}

func (u *orderUC) handleCancelled(ctx context.Context, order *model.Order, impUID string) error {
	if order.State == model.OrderStateCancel {
		return nil
	}

	info, err := u.gateway.GetPaymentInfo(ctx, impUID)
	if err != nil {
		return err
	}
	if info.Status != adapter.PaymentStatusCancelled {
		return fmt.Errorf("%w: gateway reports %q, not cancelled", domain.ErrPaymentIncomplete, info.Status)
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.orders.UpdateState(ctx, tx, order.ID, model.OrderStateCancel, info.CancelAmount); err != nil {
			return err
		}
		return u.contracts.RevokeForOrder(ctx, tx, order.ID, order.MemberID)
	})
	if err != nil {
		return fmt.Errorf("%w: cancelling order %s: %v", domain.ErrOperationFailed, order.MerchantUID, err)
	}

	metrics.IncOrder("cancel")
	u.log.Info().Str("merchant_uid", order.MerchantUID).Int64("cancel_amount", info.CancelAmount).
		Msg("order cancelled")
	return nil
}

func (u *orderUC) ContractFreeService(ctx context.Context, couponNumber string, productID, memberID int64) ([]string, error) {
	coupon, err := u.coupons.Valid(ctx, couponNumber, productID)
	if err != nil {
		return nil, err
	}
	if coupon.DiscountPercent != 100 {
		return nil, domain.ErrNotFreeCoupon
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.coupons.Use(ctx, tx, couponNumber); err != nil {
			return err
		}

		now := time.Now()
		order := &model.Order{
			ID:          ulid.Make().String(),
			MerchantUID: model.NewMerchantUID(),
			State:       model.OrderStateComplete,
			PaidAmount:  0,
			MemberID:    memberID,
			ProductID:   productID,
			CardName:    "free",
			CardNumber:  "free",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := u.orders.Save(ctx, tx, order); err != nil {
			return err
		}
		return u.contracts.Grant(ctx, tx, productID, memberID, order.ID)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncOrder("complete")
	u.log.Info().Int64("member_id", memberID).Int64("product_id", productID).
		Str("coupon", couponNumber).Msg("free service contracted")
	return u.members.FindActiveServices(ctx, memberID)
}

func (u *orderUC) Reconcile(ctx context.Context, merchantUID string) (*model.Order, error) {
	order, err := u.orders.FindByMerchantUID(ctx, nil, merchantUID)
	if err != nil {
		return nil, err
	}
	if order.Terminal() {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrAlreadyProcessed, merchantUID, order.State)
	}

	// The stuck order may never have received a gateway reference, so look
	// the transaction up by our own reference.
	info, err := u.gateway.FindPaymentByMerchantUID(ctx, merchantUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && time.Since(order.CreatedAt) > checkoutAbandonedAfter {
			// No charge was ever attempted and nobody is coming back for
			// this checkout. Close it out so it stops occupying scans.
			if err := u.failOrder(ctx, order); err != nil {
				return nil, err
			}
			return u.orders.FindByMerchantUID(ctx, nil, merchantUID)
		}
		return nil, err
	}

	switch info.Status {
	case adapter.PaymentStatusPaid:
		if info.Amount != order.PaidAmount {
			return nil, fmt.Errorf("%w: expected %d, gateway reports %d", domain.ErrAmountMismatch, order.PaidAmount, info.Amount)
		}
		if err := u.completePaidOrder(ctx, order, info); err != nil {
			return nil, err
		}
	case adapter.PaymentStatusReady:
		// Virtual account issued, deposit still pending: genuinely in flight.
		u.log.Info().Str("merchant_uid", merchantUID).Msg("reconcile: payment still in flight")
		return order, nil
	default:
		if err := u.failOrder(ctx, order); err != nil {
			return nil, err
		}
	}

	return u.orders.FindByMerchantUID(ctx, nil, merchantUID)
}

// failOrder moves the order to FAILED and revokes whatever it granted, in one
// transaction.
func (u *orderUC) failOrder(ctx context.Context, order *model.Order) error {
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.orders.UpdateState(ctx, tx, order.ID, model.OrderStateFailed, 0); err != nil {
			return err
		}
		return u.contracts.RevokeForOrder(ctx, tx, order.ID, order.MemberID)
	})
	if err != nil {
		return fmt.Errorf("%w: failing order %s: %v", domain.ErrOperationFailed, order.MerchantUID, err)
	}
	metrics.IncOrder("failed")
	return nil
}

func (u *orderUC) ListHistory(ctx context.Context, memberID int64) ([]*OrderHistory, error) {
	orders, err := u.orders.ListByMember(ctx, nil, memberID)
	if err != nil {
		return nil, err
	}
	out := make([]*OrderHistory, 0, len(orders))
	for _, o := range orders {
		product, err := u.products.FindByID(ctx, nil, o.ProductID)
		if err != nil {
			return nil, err
		}
		out = append(out, &OrderHistory{Order: o, Product: product})
	}
	return out, nil
}

func (u *orderUC) GetHistory(ctx context.Context, memberID int64, orderID string) (*OrderHistory, error) {
	order, err := u.orders.FindByMemberAndID(ctx, nil, memberID, orderID)
	if err != nil {
		return nil, err
	}
	product, err := u.products.FindByID(ctx, nil, order.ProductID)
	if err != nil {
		return nil, err
	}
	return &OrderHistory{Order: order, Product: product}, nil
}
