package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APISender posts messages to a SendGrid-style HTTP endpoint.
type APISender struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

func NewAPISender(endpoint, apiKey, from string) *APISender {
	return &APISender{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type apiAddress struct {
	Email string `json:"email"`
}

type apiPersonalization struct {
	To []apiAddress `json:"to"`
}

type apiContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type apiPayload struct {
	Personalizations []apiPersonalization `json:"personalizations"`
	From             apiAddress           `json:"from"`
	Subject          string               `json:"subject"`
	Content          []apiContent         `json:"content"`
}

func (s *APISender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	to := make([]apiAddress, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, apiAddress{Email: addr})
	}
	payload := apiPayload{
		Personalizations: []apiPersonalization{{To: to}},
		From:             apiAddress{Email: s.from},
		Subject:          msg.Subject,
		Content:          []apiContent{{Type: "text/html", Value: msg.Body}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mail: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mail: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail: provider returned %d", resp.StatusCode)
	}
	return nil
}
