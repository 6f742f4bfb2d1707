// Package payout dispatches pending payouts to the external rail, degrading
// to a recorded simulated completion whenever the rail cannot genuinely
// deliver.
package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fincore/internal/domain"
	"fincore/pkg/platform/sentinel"
)

// RailResponse is the rail's answer to a payout creation.
type RailResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
}

// Simulated reports whether the rail itself answered with a synthetic payout;
// such ids carry the rail's SIM- prefix.
func (r RailResponse) Simulated() bool {
	return strings.HasPrefix(r.ID, "SIM-")
}

// Rail is the external payout API surface.
type Rail interface {
	CreatePayout(ctx context.Context, amountMinor int64, currency string, recipient domain.Recipient) (RailResponse, error)
}

// HTTPRail talks to the payout rail's REST API.
type HTTPRail struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPRail(baseURL, apiKey string) *HTTPRail {
	return &HTTPRail{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *HTTPRail) CreatePayout(ctx context.Context, amountMinor int64, currency string, recipient domain.Recipient) (RailResponse, error) {
	payload, err := json.Marshal(map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"recipient": map[string]string{
			"name":      recipient.Name,
			"account":   recipient.Account,
			"bank":      recipient.Bank,
			"bank_code": recipient.BankCode,
			"country":   recipient.Country,
		},
	})
	if err != nil {
		return RailResponse{}, fmt.Errorf("marshal payout: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/payouts", bytes.NewReader(payload))
	if err != nil {
		return RailResponse{}, fmt.Errorf("build payout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return RailResponse{}, fmt.Errorf("payout rail: %w", sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return RailResponse{}, fmt.Errorf("payout rail returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	var out RailResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return RailResponse{}, fmt.Errorf("decode rail response: %w", err)
	}
	return out, nil
}
