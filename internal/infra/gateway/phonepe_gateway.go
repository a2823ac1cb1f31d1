package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"subscription-payments/internal/domain"
	"subscription-payments/internal/domain/model"
	"subscription-payments/internal/domain/ports/adapter"
)

// PhonePeGateway implements adapter.GatewayClient using direct HTTP calls.
type PhonePeGateway struct {
	merchantID  string
	salt        string
	saltIndex   string
	callbackURL string
	baseURL     string
	client      *http.Client
}

// NewPhonePeGateway creates a new direct PhonePe gateway.
func NewPhonePeGateway(merchantID, salt, saltIndex, callbackURL string, sandbox bool, timeout time.Duration) *PhonePeGateway {
	var baseURL string
	switch sandbox {
	case true:
		baseURL = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	case false:
		baseURL = "https://api.phonepe.com/apis/hermes"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if saltIndex == "" {
		saltIndex = "1"
	}

	return &PhonePeGateway{
		merchantID:  merchantID,
		salt:        salt,
		saltIndex:   saltIndex,
		callbackURL: callbackURL,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
	}
}

func (g *PhonePeGateway) Name() string { return "phonepe" }

// payResponse represents the response from the pay API.
type payResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		InstrumentResponse    struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// statusResponse represents the response from the transaction status API.
type statusResponse struct {
	Success bool                   `json:"success"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// Initiate implements adapter.GatewayClient.Initiate.
func (g *PhonePeGateway) Initiate(ctx context.Context, userID string, amount int64, plan model.PlanTitle, billing model.BillingCycle, transactionID string) (*adapter.InitiateResult, error) {
	payload := map[string]interface{}{
		"merchantId":            g.merchantID,
		"merchantTransactionId": transactionID,
		"merchantUserId":        userID,
		"amount":                amount,
		"redirectUrl":           g.callbackURL,
		"redirectMode":          "POST",
		"callbackUrl":           g.callbackURL,
		"paymentInstrument":     map[string]string{"type": "PAY_PAGE"},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal pay payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	const path = "/pg/v1/pay"
	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, fmt.Errorf("marshal pay body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create pay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-VERIFY", g.checksum(encoded, path))

	var resp payResponse
	if err := g.do(req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: code=%s message=%s", domain.ErrGatewayRejected, resp.Code, resp.Message)
	}
	if resp.Data.InstrumentResponse.RedirectInfo.URL == "" {
		return nil, fmt.Errorf("%w: pay response missing redirect url", domain.ErrGatewayRejected)
	}

	return &adapter.InitiateResult{
		GatewayOrderID: resp.Data.TransactionID,
		RedirectURL:    resp.Data.InstrumentResponse.RedirectInfo.URL,
	}, nil
}

// QueryStatus implements adapter.GatewayClient.QueryStatus.
func (g *PhonePeGateway) QueryStatus(ctx context.Context, transactionID string) (*adapter.GatewayState, error) {
	path := fmt.Sprintf("/pg/v1/status/%s/%s", g.merchantID, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-MERCHANT-ID", g.merchantID)
	req.Header.Set("X-VERIFY", g.checksum("", path))

	var resp statusResponse
	if err := g.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Code == "PAYMENT_NOT_FOUND" || resp.Code == "TRANSACTION_NOT_FOUND" {
		return nil, domain.ErrUnknownTransaction
	}

	return &adapter.GatewayState{State: resp.Code, RawDetails: resp.Data}, nil
}

// checksum is the provider's request signature:
// SHA256(base64Payload + path + salt) + "###" + saltIndex.
func (g *PhonePeGateway) checksum(encodedPayload, path string) string {
	sum := sha256.Sum256([]byte(encodedPayload + path + g.salt))
	return hex.EncodeToString(sum[:]) + "###" + g.saltIndex
}

// do executes the request and classifies transport-level failures as
// retryable ErrGatewayUnavailable.
func (g *PhonePeGateway) do(req *http.Request, out interface{}) error {
	resp, err := g.client.Do(req)
	if err != nil {
		// Timeouts and transport failures are both retryable from the
		// caller's point of view.
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: http %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: unmarshal response: %v, body: %s", domain.ErrGatewayUnavailable, err, string(body))
	}
	return nil
}
