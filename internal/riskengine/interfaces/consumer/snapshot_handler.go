// Package consumer 消费上游管道的快照事件并触发评估
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/application"
	"github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/domain"
)

// 上游发布的快照主题
const (
	TopicDocumentProcessed = "document.processed"
	TopicCompanyAggregated = "company.aggregated"
)

// SnapshotHandler 把快照事件转成同步评估调用
type SnapshotHandler struct {
	cmd    *application.RiskCommandService
	logger *slog.Logger
}

// NewSnapshotHandler 创建消费处理器
func NewSnapshotHandler(cmd *application.RiskCommandService, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{cmd: cmd, logger: logger}
}

// Handle 按主题分发。反序列化失败视为毒消息,记录后丢弃;
// 评估失败(含持久化失败)返回错误交由读取循环重试。
func (h *SnapshotHandler) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case TopicDocumentProcessed:
		var snap domain.DocumentSnapshot
		if err := json.Unmarshal(msg.Value, &snap); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal document snapshot", "error", err)
			return nil
		}
		_, err := h.cmd.EvaluateDocument(ctx, &snap)
		return err
	case TopicCompanyAggregated:
		var snap domain.CompanySnapshot
		if err := json.Unmarshal(msg.Value, &snap); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal company snapshot", "error", err)
			return nil
		}
		_, err := h.cmd.EvaluateCompany(ctx, &snap)
		return err
	default:
		return nil
	}
}

// Runner 每个主题一个 reader 的消费循环
type Runner struct {
	brokers []string
	groupID string
	handler *SnapshotHandler
	logger  *slog.Logger
}

// NewRunner 创建消费循环
func NewRunner(brokers []string, groupID string, handler *SnapshotHandler, logger *slog.Logger) *Runner {
	return &Runner{brokers: brokers, groupID: groupID, handler: handler, logger: logger}
}

// Run 阻塞消费给定主题直到 ctx 取消
func (r *Runner) Run(ctx context.Context, topic string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        r.brokers,
		Topic:          topic,
		GroupID:        r.groupID,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
		MaxBytes:       10e6,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.ErrorContext(ctx, "failed to read kafka message", "topic", topic, "error", err)
			continue
		}
		if err := r.handler.Handle(ctx, msg); err != nil {
			// 单条失败只记录,批内其他实体不受影响
			r.logger.ErrorContext(ctx, "snapshot handling failed",
				"topic", topic, "offset", msg.Offset, "error", err)
		}
	}
}
