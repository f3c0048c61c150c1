package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a thin HTTP client for the Asaas payment API. Only the
// endpoints needed for PIX charges are covered.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type CustomerInput struct {
	Name        string `json:"name"`
	CPF         string `json:"cpfCnpj"`
	ExternalRef string `json:"externalReference,omitempty"`
}

type ChargeInput struct {
	CustomerID  string
	ValueCents  int64
	Description string
	ExternalRef string
	DueDate     time.Time
}

type Charge struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	InvoiceURL string `json:"invoiceUrl"`
}

type QRCode struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

// APIError is a non-2xx response from Asaas.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asaas: status %d: %s", e.Status, e.Body)
}

func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/customers", in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CreatePixCharge creates a PIX charge. Asaas takes values in BRL, so
// the cent amount is converted on the way out and nowhere else.
func (c *Client) CreatePixCharge(ctx context.Context, in ChargeInput) (Charge, error) {
	body := map[string]interface{}{
		"customer":    in.CustomerID,
		"billingType": "PIX",
		"value":       float64(in.ValueCents) / 100,
		"dueDate":     in.DueDate.Format("2006-01-02"),
	}
	if in.Description != "" {
		body["description"] = in.Description
	}
	if in.ExternalRef != "" {
		body["externalReference"] = in.ExternalRef
	}

	var out Charge
	if err := c.do(ctx, http.MethodPost, "/payments", body, &out); err != nil {
		return Charge{}, err
	}
	return out, nil
}

func (c *Client) PixQRCode(ctx context.Context, paymentID string) (QRCode, error) {
	var out QRCode
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID+"/pixQrCode", nil, &out); err != nil {
		return QRCode{}, err
	}
	return out, nil
}

// CancelCharge voids an open charge. Asaas rejects the delete once the
// charge is received, so callers settle the order state first.
func (c *Client) CancelCharge(ctx context.Context, paymentID string) error {
	return c.do(ctx, http.MethodDelete, "/payments/"+paymentID, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("access_token", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
