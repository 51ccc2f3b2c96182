package services

import (
  "context"
  "errors"
  "strings"

  "github.com/codemate-vn/codemate-backend/internal/clients/intent"
  "github.com/codemate-vn/codemate-backend/internal/clients/openai"
  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/utils"
)

// ErrResponderUnavailable means the backing client was never initialized
// (typically a missing credential). Request-time call failures never surface
// as errors; they collapse into FallbackApology.
var ErrResponderUnavailable = errors.New("responder unavailable")

const (
  // systemPrompt fixes the assistant persona, tone and target language.
  systemPrompt = "Bạn là một trợ lý ảo hữu ích, trả lời chính xác, chuẩn xác, súc tích, ngắn gọn, đầy đủ ý, nội dung, và thân thiện bằng tiếng Việt."

  // FallbackApology is returned whenever reply generation fails at request time.
  FallbackApology = "Rất tiếc, đã có lỗi xảy ra trong quá trình tạo phản hồi từ AI."

  IntentGreeting = "chào hỏi"
  IntentQuestion = "hỏi"
  IntentRequest  = "yêu cầu"
)

var cannedReplies = map[string]string{
  IntentGreeting: "Xin chào! Rất vui được trò chuyện với bạn.",
  IntentQuestion: "Hôm nay trời nắng, nhiệt độ khoảng 30°C.",
  IntentRequest:  "Tôi sẽ cố gắng thực hiện yêu cầu của bạn.",
}

type Responder interface {
  Generate(ctx context.Context, input string) (string, error)
  Ready() bool
}

// NewResponder picks the strategy from RESPONDER_STRATEGY (generative | intent).
func NewResponder(log *logger.Logger) Responder {
  strategy := utils.GetEnv("RESPONDER_STRATEGY", "generative", log)
  switch strategy {
  case "intent":
    var classifier IntentClassifier
    client, err := intent.New(log)
    if err != nil {
      log.Warn("Intent sidecar not configured, using keyword classifier", "error", err)
      classifier = KeywordClassifier{}
    } else {
      classifier = client
    }
    return NewIntentResponder(log, classifier)
  default:
    client, err := openai.New(log)
    if err != nil {
      log.Error("Could not init OpenAI client", "error", err)
      return &unavailableResponder{reason: err}
    }
    return NewGenerativeResponder(log, client)
  }
}

// IntentClassifier maps an utterance to one of the closed intent set.
type IntentClassifier interface {
  Classify(ctx context.Context, text string) (string, error)
}

type intentResponder struct {
  log        *logger.Logger
  classifier IntentClassifier
}

func NewIntentResponder(log *logger.Logger, classifier IntentClassifier) Responder {
  return &intentResponder{log: log.With("service", "ResponderService", "strategy", "intent"), classifier: classifier}
}

func (r *intentResponder) Generate(ctx context.Context, input string) (string, error) {
  detected, err := r.classifier.Classify(ctx, input)
  if err != nil {
    r.log.Warn("Intent classification failed, degrading to apology", "error", err)
    return FallbackApology, nil
  }
  r.log.Info("Intent classified", "intent", detected)
  if reply, ok := cannedReplies[detected]; ok {
    return reply, nil
  }
  return cannedReplies[IntentRequest], nil
}

func (r *intentResponder) Ready() bool {
  return r.classifier != nil
}

// KeywordClassifier is the in-process fallback when no classifier sidecar is
// configured. Not a model, just enough surface to keep the canned strategy
// usable in development.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(ctx context.Context, text string) (string, error) {
  lowered := strings.ToLower(strings.TrimSpace(text))
  switch {
  case strings.Contains(lowered, "xin chào"),
    strings.Contains(lowered, "chào"),
    strings.HasPrefix(lowered, "hello"),
    strings.HasPrefix(lowered, "hi "):
    return IntentGreeting, nil
  case strings.Contains(lowered, "?"),
    strings.Contains(lowered, "bao nhiêu"),
    strings.Contains(lowered, "là gì"),
    strings.Contains(lowered, "thế nào"),
    strings.Contains(lowered, "vì sao"),
    strings.Contains(lowered, "tại sao"):
    return IntentQuestion, nil
  default:
    return IntentRequest, nil
  }
}

type generativeResponder struct {
  log    *logger.Logger
  client openai.Client
}

func NewGenerativeResponder(log *logger.Logger, client openai.Client) Responder {
  return &generativeResponder{log: log.With("service", "ResponderService", "strategy", "generative"), client: client}
}

func (r *generativeResponder) Generate(ctx context.Context, input string) (string, error) {
  if r.client == nil {
    return "", ErrResponderUnavailable
  }
  reply, err := r.client.Complete(ctx, systemPrompt, input)
  if err != nil {
    r.log.Error("Reply generation failed, degrading to apology", "error", err)
    return FallbackApology, nil
  }
  return reply, nil
}

func (r *generativeResponder) Ready() bool {
  return r.client != nil
}

type unavailableResponder struct {
  reason error
}

func (r *unavailableResponder) Generate(ctx context.Context, input string) (string, error) {
  return "", ErrResponderUnavailable
}

func (r *unavailableResponder) Ready() bool {
  return false
}
