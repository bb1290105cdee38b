// Package iyzico est un client REST minimal pour les opérations de
// réconciliation (annulation et remboursement) de l'API iyzico. Signature
// des requêtes au schéma IYZWSv2 (HMAC-SHA256).
package iyzico

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	cancelPath = "/payment/cancel"
	refundPath = "/payment/refund"
)

type Config struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	// Enabled est lu au démarrage et injecté dans le contrôleur ; le client
	// lui-même appelle toujours quand on le sollicite.
	Enabled bool
}

type Client struct {
	baseURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
	randomKey  func() string
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		httpClient: httpClient,
		randomKey: func() string {
			return strconv.FormatInt(time.Now().UnixNano(), 10) + "123456789"
		},
	}
}

type CancelRequest struct {
	ConversationID string
	PaymentID      string
	IP             string
}

type RefundRequest struct {
	ConversationID       string
	PaymentTransactionID string
	Price                float64
	IP                   string
}

// Result est la réponse commune cancel/refund. Un status "failure" est un
// refus métier, pas une erreur de transport.
type Result struct {
	Status         string `json:"status"`
	ErrorCode      string `json:"errorCode,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	PaymentID      string `json:"paymentId,omitempty"`
}

// Cancel annule un paiement non encore compensé (même jour, avant
// settlement), référencé par son paymentId.
func (c *Client) Cancel(ctx context.Context, req CancelRequest) (*Result, error) {
	body := map[string]string{
		"locale":         "tr",
		"conversationId": req.ConversationID,
		"paymentId":      req.PaymentID,
		"ip":             req.IP,
	}
	return c.post(ctx, cancelPath, body)
}

// Refund rembourse une transaction compensée, référencée par son
// paymentTransactionId. Le montant part avec un point décimal, 2 décimales.
func (c *Client) Refund(ctx context.Context, req RefundRequest) (*Result, error) {
	body := map[string]string{
		"locale":               "tr",
		"conversationId":       req.ConversationID,
		"paymentTransactionId": req.PaymentTransactionID,
		"price":                strconv.FormatFloat(req.Price, 'f', 2, 64),
		"ip":                   req.IP,
		"currency":             "TRY",
	}
	return c.post(ctx, refundPath, body)
}

func (c *Client) post(ctx context.Context, path string, body map[string]string) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	rnd := c.randomKey()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("x-iyzi-rnd", rnd)
	httpReq.Header.Set("Authorization", c.authorization(rnd, path, payload))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("appel iyzico %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("lecture réponse iyzico: %w", err)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("réponse iyzico illisible (HTTP %d): %w", resp.StatusCode, err)
	}
	if result.Status == "" {
		result.Status = StatusFailure
		if result.ErrorMessage == "" {
			result.ErrorMessage = fmt.Sprintf("réponse iyzico sans status (HTTP %d)", resp.StatusCode)
		}
	}
	return &result, nil
}

// authorization construit l'en-tête IYZWSv2 :
// base64("apiKey:K&randomKey:R&signature:hex(hmacSHA256(R+path+body, secret)))"
func (c *Client) authorization(rnd, path string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(rnd + path))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	authStr := "apiKey:" + c.apiKey + "&randomKey:" + rnd + "&signature:" + signature
	return "IYZWSv2 " + base64.StdEncoding.EncodeToString([]byte(authStr))
}
