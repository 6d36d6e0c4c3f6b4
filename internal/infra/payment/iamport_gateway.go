package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/ports/adapter"
	"consulting-payments/internal/infra/metrics"
)

// Compile-time check
var _ adapter.PaymentGateway = (*IamportGateway)(nil)

// TokenStore caches the gateway access token between calls.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Put(ctx context.Context, token string, ttl time.Duration) error
	Drop(ctx context.Context) error
}

// IamportGateway implements the PaymentGateway port against an Iamport-style
// REST API using direct HTTP calls.
type IamportGateway struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
	tokens    TokenStore
	retries   int
	log       *zerolog.Logger
}

func NewIamportGateway(baseURL, apiKey, apiSecret string, timeout time.Duration, retries int, tokens TokenStore, logger *zerolog.Logger) *IamportGateway {
	if retries <= 0 {
		retries = 3
	}
	return &IamportGateway{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: timeout},
		tokens:    tokens,
		retries:   retries,
		log:       logger,
	}
}

// iamportEnvelope is the common {code, message, response} wrapper.
type iamportEnvelope struct {
	Code     int             `json:"code"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response"`
}

type iamportToken struct {
	AccessToken string `json:"access_token"`
	Now         int64  `json:"now"`
	ExpiredAt   int64  `json:"expired_at"`
}

type iamportPayment struct {
	ImpUID        string `json:"imp_uid"`
	MerchantUID   string `json:"merchant_uid"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	CancelAmount  int64  `json:"cancel_amount"`
	CardName      string `json:"card_name"`
	CardNumber    string `json:"card_number"`
	EmbPgProvider string `json:"emb_pg_provider"`
}

func (g *IamportGateway) GetPaymentInfo(ctx context.Context, impUID string) (*adapter.PaymentInfo, error) {
	var pay iamportPayment
	err := g.call(ctx, "get_payment", http.MethodGet, "/payments/"+impUID, nil, &pay)
	if err != nil {
		return nil, err
	}
	return toPaymentInfo(&pay), nil
}

func (g *IamportGateway) FindPaymentByMerchantUID(ctx context.Context, merchantUID string) (*adapter.PaymentInfo, error) {
	var pay iamportPayment
	err := g.call(ctx, "find_payment", http.MethodGet, "/payments/find/"+merchantUID, nil, &pay)
	if err != nil {
		return nil, err
	}
	return toPaymentInfo(&pay), nil
}

func (g *IamportGateway) CancelPayment(ctx context.Context, impUID, merchantUID, reason string) (*adapter.PaymentInfo, error) {
	body := map[string]interface{}{
		"imp_uid":      impUID,
		"merchant_uid": merchantUID,
		"reason":       reason,
	}
	var pay iamportPayment
	err := g.call(ctx, "cancel_payment", http.MethodPost, "/payments/cancel", body, &pay)
	if err != nil {
		return nil, err
	}
	g.log.Warn().Str("imp_uid", impUID).Str("merchant_uid", merchantUID).Str("reason", reason).
		Msg("gateway payment cancelled")
	return toPaymentInfo(&pay), nil
}

func toPaymentInfo(p *iamportPayment) *adapter.PaymentInfo {
	return &adapter.PaymentInfo{
		ImpUID:       p.ImpUID,
		MerchantUID:  p.MerchantUID,
		Status:       p.Status,
		Amount:       p.Amount,
		CancelAmount: p.CancelAmount,
		CardName:     p.CardName,
		CardNumber:   p.CardNumber,
		PGProvider:   p.EmbPgProvider,
	}
}

// call performs an authenticated request with bounded retry on transport
// failures and 5xx. Application-level errors (non-zero code, 4xx) are not
// retried: the gateway answered, it just said no.
func (g *IamportGateway) call(ctx context.Context, op, method, path string, body interface{}, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt < g.retries; attempt++ {
		if attempt > 0 {
			metrics.IncGatewayRetry(op)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		token, err := g.accessToken(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		start := time.Now()
		status, env, err := g.do(ctx, method, path, token, body)
		metrics.ObserveGatewayCall(op, time.Since(start).Milliseconds(), err == nil && status < 300)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusUnauthorized:
			// Cached token went stale; drop it and retry with a fresh one.
			_ = g.tokens.Drop(ctx)
			lastErr = fmt.Errorf("gateway auth rejected")
			continue
		case status >= 500:
			lastErr = fmt.Errorf("gateway http %d", status)
			continue
		case status >= 400:
			return fmt.Errorf("gateway rejected %s: http %d: %s", op, status, env.Message)
		case env.Code != 0:
			return fmt.Errorf("gateway rejected %s: code %d: %s", op, env.Code, env.Message)
		}

		if err := json.Unmarshal(env.Response, out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrGatewayUnavailable, op, lastErr)
}

func (g *IamportGateway) do(ctx context.Context, method, path, token string, body interface{}) (int, *iamportEnvelope, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}

	env := &iamportEnvelope{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			return resp.StatusCode, nil, fmt.Errorf("unmarshal response: %w, body: %s", err, string(raw))
		}
	}
	return resp.StatusCode, env, nil
}

// accessToken returns a cached token or acquires a fresh one. Token
// acquisition is not part of the public gateway contract.
func (g *IamportGateway) accessToken(ctx context.Context) (string, error) {
	if tok, err := g.tokens.Get(ctx); err == nil && tok != "" {
		return tok, nil
	}

	body := map[string]string{"imp_key": g.apiKey, "imp_secret": g.apiSecret}
	status, env, err := g.do(ctx, http.MethodPost, "/users/getToken", "", body)
	if err != nil {
		return "", err
	}
	if status >= 400 || env.Code != 0 {
		return "", fmt.Errorf("token acquisition failed: http %d code %d: %s", status, env.Code, env.Message)
	}

	var tok iamportToken
	if err := json.Unmarshal(env.Response, &tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	// Cache a little short of the reported expiry.
	ttl := time.Duration(tok.ExpiredAt-tok.Now)*time.Second - 30*time.Second
	if err := g.tokens.Put(ctx, tok.AccessToken, ttl); err != nil {
		g.log.Warn().Err(err).Msg("failed to cache gateway token")
	}
	return tok.AccessToken, nil
}
