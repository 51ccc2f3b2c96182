package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/codemate-vn/codemate-backend/internal/logger"
)

// Client fronts a text-classification sidecar that maps an utterance to one
// of a small closed set of conversational intents.
type Client interface {
	Classify(ctx context.Context, text string) (string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func New(log *logger.Logger) (Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("INTENT_SERVER_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing INTENT_SERVER_URL")
	}
	return &client{
		log:        log.With("client", "IntentClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Intent string `json:"intent"`
}

func (c *client) Classify(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/classify", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("intent http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out classifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("intent decode error: %w", err)
	}
	return strings.TrimSpace(out.Intent), nil
}
