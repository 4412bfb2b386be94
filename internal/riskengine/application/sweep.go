package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/domain"
)

// SweepService 周期性批量重评。实体之间相互独立,单个实体失败只记录
// 并跳过,绝不中止整轮。并发的重复评估由评分的 append-only 策略兜底。
type SweepService struct {
	scores    domain.ScoreRepository
	cmd       *RiskCommandService
	interval  time.Duration
	maxAge    time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewSweepService 创建批量重评服务
func NewSweepService(scores domain.ScoreRepository, cmd *RiskCommandService, interval, maxAge time.Duration, batchSize int, logger *slog.Logger) *SweepService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SweepService{
		scores:    scores,
		cmd:       cmd,
		interval:  interval,
		maxAge:    maxAge,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run 阻塞运行定时循环,ctx 取消后返回
func (s *SweepService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rescored, failed := s.SweepOnce(ctx)
			s.logger.InfoContext(ctx, "risk sweep finished", "rescored", rescored, "failed", failed)
		}
	}
}

// SweepOnce 对当前评分已过期的实体用最近一次存储的快照重新评估,
// 规则集或阈值变化会反映到新评分中。返回成功与失败的实体数。
func (s *SweepService) SweepOnce(ctx context.Context) (rescored, failed int) {
	cutoff := time.Now().UTC().Add(-s.maxAge)
	refs, err := s.scores.StaleEntities(ctx, cutoff, s.batchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list stale entities", "error", err)
		return 0, 0
	}

	for _, ref := range refs {
		latest, err := s.scores.LatestForEntity(ctx, ref.EntityType, ref.EntityID, ref.TenantID)
		if err != nil || latest == nil {
			s.logger.ErrorContext(ctx, "failed to load latest score for sweep",
				"entity_type", ref.EntityType, "entity_id", ref.EntityID, "error", err)
			failed++
			continue
		}
		snap := latest.StoredSnapshot()
		if snap == nil {
			// 旧行没有存快照,等下一次上游事件触发评估
			continue
		}
		snap.AsOf = time.Time{}
		if _, err := s.cmd.Evaluate(ctx, snap); err != nil {
			s.logger.ErrorContext(ctx, "sweep evaluation failed",
				"entity_type", ref.EntityType, "entity_id", ref.EntityID, "error", err)
			failed++
			continue
		}
		rescored++
	}
	return rescored, failed
}
