package services

import (
  "context"
  "errors"
  "fmt"
  "time"

  "golang.org/x/sync/semaphore"

  "github.com/codemate-vn/codemate-backend/internal/clients/gcp"
  "github.com/codemate-vn/codemate-backend/internal/clients/whisper"
  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/utils"
)

var (
  // ErrTranscriberUnavailable means the acoustic backend never initialized.
  // Callers check Ready() proactively; this error covers the race anyway.
  ErrTranscriberUnavailable = errors.New("transcriber unavailable")
  // ErrAudioDecode means this particular input could not be decoded.
  ErrAudioDecode = errors.New("audio decode failed")
)

type TranscriptionResult struct {
  Text       string
  Provider   string
  Elapsed    time.Duration
}

type Transcriber interface {
  Transcribe(ctx context.Context, audio []byte, mimeType string) (*TranscriptionResult, error)
  Ready() bool
  Close() error
}

// NewTranscriber picks the provider from SPEECH_PROVIDER (whisper | gcp).
// A failed init yields a not-ready transcriber instead of a nil handle, so the
// orchestrator can report ServiceUnavailable rather than fault.
func NewTranscriber(log *logger.Logger) Transcriber {
  provider := utils.GetEnv("SPEECH_PROVIDER", "whisper", log)
  language := utils.GetEnv("SPEECH_LANGUAGE", "vi", log)
  switch provider {
  case "gcp":
    client, err := gcp.NewSpeech(log)
    if err != nil {
      log.Error("Could not init GCP speech transcriber", "error", err)
      return &unavailableTranscriber{reason: err}
    }
    return &gcpTranscriber{log: log.With("service", "TranscriberService"), client: client, language: languageCodeFor(language)}
  default:
    client, err := whisper.New(log)
    if err != nil {
      log.Error("Could not init Whisper transcriber", "error", err)
      return &unavailableTranscriber{reason: err}
    }
    slots := utils.GetEnvAsInt("WHISPER_MAX_CONCURRENT", 1, log)
    if slots < 1 {
      slots = 1
    }
    return &whisperTranscriber{
      log:      log.With("service", "TranscriberService"),
      client:   client,
      language: language,
      sem:      semaphore.NewWeighted(int64(slots)),
    }
  }
}

func languageCodeFor(lang string) string {
  switch lang {
  case "vi":
    return "vi-VN"
  case "en":
    return "en-US"
  default:
    return lang
  }
}

// whisperTranscriber serializes inference through a weighted semaphore: the
// backing model process handles a fixed number of concurrent decodes.
type whisperTranscriber struct {
  log      *logger.Logger
  client   whisper.Client
  language string
  sem      *semaphore.Weighted
}

func (t *whisperTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (*TranscriptionResult, error) {
  if len(audio) == 0 {
    return &TranscriptionResult{Text: "", Provider: "whisper"}, nil
  }
  if err := t.sem.Acquire(ctx, 1); err != nil {
    return nil, err
  }
  defer t.sem.Release(1)

  start := time.Now()
  text, err := t.client.Transcribe(ctx, audio, mimeType, t.language)
  elapsed := time.Since(start)
  if err != nil {
    if errors.Is(err, whisper.ErrDecode) {
      return nil, fmt.Errorf("%w: %v", ErrAudioDecode, err)
    }
    return nil, err
  }
  t.log.Info("Transcription complete", "provider", "whisper", "elapsed", elapsed.String(), "chars", len(text))
  return &TranscriptionResult{Text: text, Provider: "whisper", Elapsed: elapsed}, nil
}

func (t *whisperTranscriber) Ready() bool {
  return t.client != nil
}

func (t *whisperTranscriber) Close() error {
  return nil
}

type gcpTranscriber struct {
  log      *logger.Logger
  client   gcp.Speech
  language string
}

func (t *gcpTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (*TranscriptionResult, error) {
  if len(audio) == 0 {
    return &TranscriptionResult{Text: "", Provider: "gcp_speech"}, nil
  }
  start := time.Now()
  text, err := t.client.TranscribeAudioBytes(ctx, audio, mimeType, t.language)
  elapsed := time.Since(start)
  if err != nil {
    if errors.Is(err, gcp.ErrDecode) {
      return nil, fmt.Errorf("%w: %v", ErrAudioDecode, err)
    }
    return nil, err
  }
  t.log.Info("Transcription complete", "provider", "gcp_speech", "elapsed", elapsed.String(), "chars", len(text))
  return &TranscriptionResult{Text: text, Provider: "gcp_speech", Elapsed: elapsed}, nil
}

func (t *gcpTranscriber) Ready() bool {
  return t.client != nil
}

func (t *gcpTranscriber) Close() error {
  return t.client.Close()
}

type unavailableTranscriber struct {
  reason error
}

func (t *unavailableTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (*TranscriptionResult, error) {
  return nil, ErrTranscriberUnavailable
}

func (t *unavailableTranscriber) Ready() bool {
  return false
}

func (t *unavailableTranscriber) Close() error {
  return nil
}
