package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clonedirect/internal/domain"
	"go.uber.org/zap"
)

// HTTPSender realizes effects by posting them to the delivery service that
// owns the actual chat transport. Operator notifications are delivered as
// plain messages to the configured operator identity.
type HTTPSender struct {
	client     *http.Client
	baseURL    string
	operatorID string
	logger     *zap.Logger
}

func NewHTTPSender(baseURL, operatorID string, logger *zap.Logger) *HTTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSender{
		client:     &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		operatorID: operatorID,
		logger:     logger,
	}
}

type outboundMessage struct {
	Type     string          `json:"type"`
	UserID   string          `json:"user_id"`
	Text     string          `json:"text,omitempty"`
	MediaRef string          `json:"media_ref,omitempty"`
	Options  []domain.Choice `json:"options,omitempty"`
}

func (s *HTTPSender) SendText(ctx context.Context, e domain.SendText) error {
	return s.post(ctx, outboundMessage{Type: "text", UserID: e.UserID, Text: e.Text})
}

func (s *HTTPSender) SendMedia(ctx context.Context, e domain.SendMedia) error {
	return s.post(ctx, outboundMessage{
		Type:     "media",
		UserID:   e.UserID,
		Text:     e.Caption,
		MediaRef: e.MediaRef,
		Options:  e.Choices,
	})
}

func (s *HTTPSender) SendChoices(ctx context.Context, e domain.SendChoices) error {
	return s.post(ctx, outboundMessage{
		Type:    "choices",
		UserID:  e.UserID,
		Text:    e.Prompt,
		Options: e.Options,
	})
}

func (s *HTTPSender) NotifyOperator(ctx context.Context, e domain.NotifyOperator) error {
	return s.post(ctx, outboundMessage{Type: "text", UserID: s.operatorID, Text: e.Text})
}

func (s *HTTPSender) post(ctx context.Context, msg outboundMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("transport: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("transport: deliver %s to %s: %w", msg.Type, msg.UserID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("transport: deliver %s to %s: status %d", msg.Type, msg.UserID, resp.StatusCode)
	}
	return nil
}

// LogSender is a Sender for local runs without a delivery service: outbound
// messages are written to the log.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) SendText(_ context.Context, e domain.SendText) error {
	s.logger.Info("outbound text", zap.String("user_id", e.UserID), zap.String("text", e.Text))
	return nil
}

func (s *LogSender) SendMedia(_ context.Context, e domain.SendMedia) error {
	s.logger.Info("outbound media",
		zap.String("user_id", e.UserID),
		zap.String("media_ref", e.MediaRef),
		zap.String("caption", e.Caption))
	return nil
}

func (s *LogSender) SendChoices(_ context.Context, e domain.SendChoices) error {
	s.logger.Info("outbound choices",
		zap.String("user_id", e.UserID),
		zap.String("prompt", e.Prompt),
		zap.Int("options", len(e.Options)))
	return nil
}

func (s *LogSender) NotifyOperator(_ context.Context, e domain.NotifyOperator) error {
	s.logger.Info("operator notification", zap.String("text", e.Text))
	return nil
}
