package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/model"
	"consulting-payments/internal/infra/logging"
)

type preRegisterRequest struct {
	ProductID    int64  `json:"product_id"`
	CouponNumber string `json:"coupon_number,omitempty"`
}

type preRegisterResponse struct {
	MerchantUID string `json:"merchant_uid"`
	Amount      int64  `json:"amount"`
	ProductName string `json:"name"`
}

func (s *Server) handlePreRegister(w http.ResponseWriter, r *http.Request) {
	var req preRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, product, err := s.orderUC.PreRegister(r.Context(), req.ProductID, memberFromCtx(r.Context()), req.CouponNumber)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, preRegisterResponse{
		MerchantUID: order.MerchantUID,
		Amount:      order.PaidAmount,
		ProductName: product.Name,
	})
}

type verifyRequest struct {
	ImpUID       string `json:"imp_uid"`
	MerchantUID  string `json:"merchant_uid"`
	CouponNumber string `json:"coupon_number,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ImpUID == "" || req.MerchantUID == "" {
		http.Error(w, "imp_uid and merchant_uid are required", http.StatusBadRequest)
		return
	}

	result, err := s.orderUC.Verify(r.Context(), req.ImpUID, req.MerchantUID, req.CouponNumber)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type webhookRequest struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Status      string `json:"status"`
}

// handleWebhook always acknowledges with 200: surfacing business rejections
// to the gateway only provokes retry storms. Failures are logged and counted.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Warn().Err(err).Msg("webhook: undecodable body")
		writeJSON(w, http.StatusOK, map[string]string{"message": "ignored"})
		return
	}

	ctx := logging.WithMerchantUID(r.Context(), req.MerchantUID)
	if err := s.orderUC.ProcessWebhook(ctx, req.ImpUID, req.MerchantUID, req.Status); err != nil {
		s.log.Error().Err(err).Str("merchant_uid", req.MerchantUID).Str("status", req.Status).
			Msg("webhook processing failed")
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

type validCouponRequest struct {
	CouponNumber string `json:"coupon_number"`
	ProductID    int64  `json:"product_id"`
}

type validCouponResponse struct {
	DiscountAmount int64  `json:"discount_amount"`
	Description    string `json:"description"`
}

func (s *Server) handleValidCoupon(w http.ResponseWriter, r *http.Request) {
	var req validCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	v, err := s.couponUC.Valid(r.Context(), req.CouponNumber, req.ProductID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validCouponResponse{DiscountAmount: v.DiscountAmount, Description: v.Description})
}

func (s *Server) handleFreeContract(w http.ResponseWriter, r *http.Request) {
	var req validCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	services, err := s.orderUC.ContractFreeService(r.Context(), req.CouponNumber, req.ProductID, memberFromCtx(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"active_services": services})
}

type historyEntry struct {
	OrderID      string           `json:"order_id"`
	State        model.OrderState `json:"order_state"`
	PaidAmount   int64            `json:"paid_amount"`
	CancelAmount int64            `json:"cancel_amount"`
	CardName     string           `json:"card_name"`
	CardNumber   string           `json:"card_number,omitempty"`
	ProductName  string           `json:"product_name"`
	ProductPrice int64            `json:"product_price"`
	CreatedAt    string           `json:"created_at"`
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.orderUC.ListHistory(r.Context(), memberFromCtx(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntry{
			OrderID:      e.Order.ID,
			State:        e.Order.State,
			PaidAmount:   e.Order.PaidAmount,
			CancelAmount: e.Order.CancelAmount,
			CardName:     e.Order.CardName,
			ProductName:  e.Product.Name,
			ProductPrice: e.Product.Price,
			CreatedAt:    e.Order.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistoryDetail(w http.ResponseWriter, r *http.Request) {
	entry, err := s.orderUC.GetHistory(r.Context(), memberFromCtx(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, historyEntry{
		OrderID:      entry.Order.ID,
		State:        entry.Order.State,
		PaidAmount:   entry.Order.PaidAmount,
		CancelAmount: entry.Order.CancelAmount,
		CardName:     entry.Order.CardName,
		CardNumber:   entry.Order.CardNumber,
		ProductName:  entry.Product.Name,
		ProductPrice: entry.Product.Price,
		CreatedAt:    entry.Order.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleStoreCode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"store_code": s.storeCode})
}

func (s *Server) handleInquire(w http.ResponseWriter, r *http.Request) {
	order, err := s.orderUC.Reconcile(r.Context(), chi.URLParam(r, "merchantUID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// writeError maps domain errors onto the HTTP taxonomy.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrNotFreeCoupon):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrAlreadyProcessed),
		errors.Is(err, domain.ErrPaymentIncomplete),
		errors.Is(err, domain.ErrAmountMismatch):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrCouponExhausted):
		http.Error(w, err.Error(), http.StatusGone)
	case errors.Is(err, domain.ErrGatewayUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		s.log.Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
