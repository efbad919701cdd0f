// Package chat orchestrates the question-answering turn: validate the
// conversation, retrieve documentation context for the latest user
// question, and stream the model's answer.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/usecase/prompt"
)

// maxMessageRunes caps a single message's content.
const maxMessageRunes = 2000

// Service streams documentation-grounded answers from an OpenAI-compatible
// chat model.
type Service struct {
	client    *openai.Client
	model     string
	retriever Retriever
	limit     int
	logger    *zap.Logger
}

// Config holds the chat model provider settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	Retriever      Retriever
	RetrievalLimit int
	Logger         *zap.Logger
}

// New creates a chat service.
func New(cfg *Config) *Service {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		// Bound time to first response byte. A whole-request timeout
		// would cut off long streams mid-answer.
		clientCfg.HTTPClient = &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: cfg.Timeout},
		}
	}

	limit := cfg.RetrievalLimit
	if limit <= 0 {
		limit = 6
	}

	return &Service{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		retriever: cfg.Retriever,
		limit:     limit,
		logger:    cfg.Logger,
	}
}

// ValidateMessages checks the conversation shape: non-empty list, known
// roles, content between 1 and 2000 runes. Violations wrap
// domain.ErrInvalidRequest.
func ValidateMessages(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("messages array is required: %w", domain.ErrInvalidRequest)
	}
	for i, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("message %d: role must be %q or %q, got %q: %w",
				i, RoleUser, RoleAssistant, m.Role, domain.ErrInvalidRequest)
		}
		if m.Content == "" {
			return fmt.Errorf("message %d: content is required: %w", i, domain.ErrInvalidRequest)
		}
		if utf8.RuneCountInString(m.Content) > maxMessageRunes {
			return fmt.Errorf("message %d: content exceeds %d characters: %w",
				i, maxMessageRunes, domain.ErrInvalidRequest)
		}
	}
	return nil
}

// Stream validates the conversation, retrieves context for the last user
// message, and streams the model answer chunk by chunk through onChunk.
// Validation happens before any retrieval or model work. onChunk errors
// (consumer gone) stop the stream and are returned as-is.
func (s *Service) Stream(ctx context.Context, messages []Message, onChunk func(messageID, delta string) error) error {
	if err := ValidateMessages(messages); err != nil {
		return err
	}

	query := ""
	if last := messages[len(messages)-1]; last.Role == RoleUser {
		query = strings.TrimSpace(last.Content)
	}

	contextText := prompt.Placeholder
	if query != "" {
		contextText = s.retriever.SearchAndFormat(ctx, query, s.limit)
	}

	systemPrompt := strings.Replace(systemPromptTemplate, "{context}", contextText, 1)

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	messageID := uuid.NewString()
	start := time.Now()

	stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: chatMessages,
		Stream:   true,
	})
	if err != nil {
		metrics.ModelStreamsTotal.WithLabelValues(s.model, "error").Inc()
		return parseAPIError(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.ModelStreamsTotal.WithLabelValues(s.model, "error").Inc()
			return parseAPIError(err)
		}

		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onChunk(messageID, delta); err != nil {
			return err
		}
	}

	metrics.ModelStreamsTotal.WithLabelValues(s.model, "success").Inc()
	metrics.ModelStreamDuration.WithLabelValues(s.model).Observe(time.Since(start).Seconds())

	s.logger.Debug("model stream completed",
		zap.String("message_id", messageID),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrModelProviderError.
func parseAPIError(err error) error {
	wrap := domain.ErrModelProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("chat request failed: %v: %w", err, wrap)
}
