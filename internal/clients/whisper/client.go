package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/codemate-vn/codemate-backend/internal/logger"
)

// ErrDecode marks audio the inference server could not decode. It is an input
// problem, not a systemic one, and must never be retried.
var ErrDecode = errors.New("whisper: undecodable audio")

// Client fronts a local Whisper inference server. The model itself is an
// opaque capability behind a single transcription call.
type Client interface {
	Transcribe(ctx context.Context, audio []byte, mimeType, language string) (string, error)
	Healthy(ctx context.Context) bool
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func New(log *logger.Logger) (Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("WHISPER_SERVER_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing WHISPER_SERVER_URL")
	}

	timeoutSec := 120
	if v := os.Getenv("WHISPER_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &client{
		log:        log.With("client", "WhisperClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: 2,
	}, nil
}

type transcribeResponse struct {
	Text string `json:"text"`
}

func (c *client) Transcribe(ctx context.Context, audio []byte, mimeType, language string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	endpoint := c.baseURL + "/v1/transcribe"
	if language != "" {
		endpoint += "?language=" + url.QueryEscape(language)
	}

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
		if err != nil {
			return "", err
		}
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		req.Header.Set("Content-Type", mimeType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			raw, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = readErr
			case resp.StatusCode == http.StatusBadRequest,
				resp.StatusCode == http.StatusUnsupportedMediaType,
				resp.StatusCode == http.StatusUnprocessableEntity:
				return "", fmt.Errorf("%w: server said %s", ErrDecode, strings.TrimSpace(string(raw)))
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				var out transcribeResponse
				if uErr := json.Unmarshal(raw, &out); uErr != nil {
					return "", fmt.Errorf("whisper decode error: %w", uErr)
				}
				return strings.TrimSpace(out.Text), nil
			default:
				lastErr = fmt.Errorf("whisper http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		c.log.Warn("Whisper request retrying", "attempt", attempt+1, "error", lastErr.Error())
		time.Sleep(backoff)
		backoff *= 2
	}
	return "", lastErr
}

func (c *client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
