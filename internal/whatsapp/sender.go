package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoCredentials means the Cloud API is not configured; messages are
// queued instead of sent.
var ErrNoCredentials = errors.New("whatsapp: cloud api credentials not configured")

// DefaultBaseURL is the Meta Graph API endpoint for WhatsApp Cloud sends.
const DefaultBaseURL = "https://graph.facebook.com/v21.0"

// CloudSender delivers messages through the WhatsApp Cloud API.
type CloudSender struct {
	client        *http.Client
	baseURL       string
	accessToken   string
	phoneNumberID string
}

// NewCloudSender builds a sender. Empty credentials are allowed; Send then
// returns ErrNoCredentials so the caller can queue instead.
func NewCloudSender(baseURL, accessToken, phoneNumberID string) *CloudSender {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CloudSender{
		client:        &http.Client{Timeout: 15 * time.Second},
		baseURL:       baseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
	}
}

type cloudSendRequest struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             cloudSendText `json:"text"`
}

type cloudSendText struct {
	Body string `json:"body"`
}

type cloudSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Send posts one text message and returns the provider message id.
func (s *CloudSender) Send(ctx context.Context, phone, body string) (string, error) {
	if s.accessToken == "" || s.phoneNumberID == "" {
		return "", ErrNoCredentials
	}

	payload, err := json.Marshal(cloudSendRequest{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "text",
		Text:             cloudSendText{Body: body},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloud api request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("cloud api status %d: %s", resp.StatusCode, raw)
	}

	var parsed cloudSendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Messages) == 0 {
		return "", errors.New("whatsapp: cloud api returned no message id")
	}
	return parsed.Messages[0].ID, nil
}
