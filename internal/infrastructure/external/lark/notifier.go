package lark

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string
	// ReviewChatID is the group chat that receives NEEDS_REVIEW cases
	ReviewChatID string
}

// ReviewNotifier implements port.ReviewNotifier by posting to the agent
// review group chat
type ReviewNotifier struct {
	client *lark.Client
	chatID string
	logger *zap.Logger
}

// NewReviewNotifier creates a new Lark review notifier
func NewReviewNotifier(cfg Config, logger *zap.Logger) *ReviewNotifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)

	return &ReviewNotifier{
		client: client,
		chatID: cfg.ReviewChatID,
		logger: logger,
	}
}

// NotifyReviewNeeded posts a text message describing the case to the review
// chat
func (n *ReviewNotifier) NotifyReviewNeeded(ctx context.Context, rma *entity.RmaRequest, reasonCode, reasonMessage string) error {
	text := fmt.Sprintf("RMA needs review\nRMA: %s\nOrder: %s / %s\nReason: %s (%s)",
		rma.RmaID, rma.OrderID, rma.SKU, reasonCode, reasonMessage)

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(n.chatID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send review notification",
			zap.String("rma_id", rma.RmaID),
			zap.Error(err))
		return fmt.Errorf("failed to send review notification: %w", err)
	}

	if !resp.Success() {
		n.logger.Error("API returned failure",
			zap.String("rma_id", rma.RmaID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	n.logger.Info("Review notification sent",
		zap.String("rma_id", rma.RmaID),
		zap.String("reason_code", reasonCode))

	return nil
}

// Verify interface compliance
var _ port.ReviewNotifier = (*ReviewNotifier)(nil)
