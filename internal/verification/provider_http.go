package verification

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fincore/pkg/platform/sentinel"
)

// HTTPProvider talks to the verification provider's REST API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *HTTPProvider) CreateApplicant(ctx context.Context, externalID string, person ApplicantPerson) (string, error) {
	var resp struct {
		ApplicantID string `json:"applicant_id"`
	}
	err := p.post(ctx, "/applicants", map[string]any{
		"external_id":   externalID,
		"first_name":    person.FirstName,
		"last_name":     person.LastName,
		"email":         person.Email,
		"phone":         person.Phone,
		"date_of_birth": person.DateOfBirth,
		"country":       person.Country,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ApplicantID, nil
}

func (p *HTTPProvider) UploadDocument(ctx context.Context, applicantID string, doc ProviderDocument) (string, error) {
	var resp struct {
		DocumentID string `json:"document_id"`
	}
	err := p.post(ctx, fmt.Sprintf("/applicants/%s/documents", applicantID), map[string]any{
		"category":  doc.Category,
		"file_name": doc.FileName,
		"mime_type": doc.MimeType,
		"content":   base64.StdEncoding.EncodeToString(doc.Data),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.DocumentID, nil
}

func (p *HTTPProvider) CreateVerification(ctx context.Context, applicantID string, types []string) (string, error) {
	var resp struct {
		VerificationID string `json:"verification_id"`
	}
	err := p.post(ctx, "/verifications", map[string]any{
		"applicant_id": applicantID,
		"types":        types,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.VerificationID, nil
}

func (p *HTTPProvider) GetKYCFormURL(ctx context.Context, applicantID string) (string, error) {
	var resp struct {
		FormURL string `json:"form_url"`
	}
	err := p.post(ctx, fmt.Sprintf("/applicants/%s/form", applicantID), map[string]any{}, &resp)
	if err != nil {
		return "", err
	}
	return resp.FormURL, nil
}

func (p *HTTPProvider) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal provider request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider %s: %w", path, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("provider %s returned %d: %w", path, resp.StatusCode, sentinel.ErrUnavailable)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("provider %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
