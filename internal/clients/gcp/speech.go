package gcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/codemate-vn/codemate-backend/internal/logger"
)

// ErrDecode marks audio the recognizer rejected as malformed or in an
// unsupported container.
var ErrDecode = errors.New("gcp speech: undecodable audio")

type Speech interface {
	TranscribeAudioBytes(ctx context.Context, audio []byte, mimeType, languageCode string) (string, error)
	Close() error
}

type speechClient struct {
	log        *logger.Logger
	client     *speech.Client
	maxRetries int
}

func NewSpeech(log *logger.Logger) (Speech, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("client", "gcp.Speech")

	ctx := context.Background()
	c, err := speech.NewClient(ctx, clientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	return &speechClient{
		log:        slog,
		client:     c,
		maxRetries: 4,
	}, nil
}

func clientOptionsFromEnv() []option.ClientOption {
	if raw := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

func (s *speechClient) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// TranscribeAudioBytes runs synchronous recognition; uploads are short spoken
// turns, well under the sync API's one-minute limit.
func (s *speechClient) TranscribeAudioBytes(ctx context.Context, audio []byte, mimeType, languageCode string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	if len(audio) == 0 {
		return "", nil
	}
	if languageCode == "" {
		languageCode = "vi-VN"
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encodingForMime(mimeType),
			SampleRateHertz:            16000,
			AudioChannelCount:          1,
			LanguageCode:               languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := s.retryRecognize(ctx, req)
	if err != nil {
		if status.Code(err) == codes.InvalidArgument {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return "", fmt.Errorf("speech recognize: %w", err)
	}

	var sb strings.Builder
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(strings.TrimSpace(alts[0].GetTranscript()))
	}
	return strings.TrimSpace(sb.String()), nil
}

func (s *speechClient) retryRecognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	backoff := 1 * time.Second
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := s.client.Recognize(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryableCode(status.Code(err)) || attempt == s.maxRetries {
			return nil, err
		}
		s.log.Warn("Speech recognize retrying", "attempt", attempt+1, "code", status.Code(err).String())
		time.Sleep(backoff)
		backoff *= 2
		if backoff > 8*time.Second {
			backoff = 8 * time.Second
		}
	}
	return nil, lastErr
}

func retryableCode(c codes.Code) bool {
	switch c {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal:
		return true
	default:
		return false
	}
}

func encodingForMime(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.Contains(mt, "wav"), strings.Contains(mt, "x-wav"), strings.Contains(mt, "wave"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(mt, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	case strings.Contains(mt, "ogg"):
		return speechpb.RecognitionConfig_OGG_OPUS
	case strings.Contains(mt, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(mt, "mp3"), strings.Contains(mt, "mpeg"):
		return speechpb.RecognitionConfig_MP3
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}
