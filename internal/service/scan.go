package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nboxie/backend/internal/classifier"
	"nboxie/backend/internal/config"
	"nboxie/backend/internal/domain"
	"nboxie/backend/internal/inbox"
	"nboxie/backend/internal/monitoring"
	"nboxie/backend/internal/pool"
)

// ScanService 扫描编排器：列出收件箱消息、逐封分类、
// 去重后落库并写入扫描标记。
//
// 收件箱实例按请求传入（每个用户自己的令牌），分类器在构造时注入，
// 编排逻辑对两条流水线完全一致。
type ScanService struct {
	store   domain.Store
	cache   markerCache
	clf     classifier.Classifier
	cfg     config.ScanConfig
	metrics *monitoring.Metrics
	log     *zap.Logger
	workers *pool.WorkerPool
}

// markerCache 扫描标记快速路径，可为 nil（未配置 Redis 时）
type markerCache interface {
	HasMarker(messageID string) (bool, error)
	SetMarker(marker *domain.ScanMarker) error
}

// NewScanService 创建扫描服务。cache 与 metrics 允许为 nil。
func NewScanService(store domain.Store, cache markerCache, clf classifier.Classifier, cfg config.ScanConfig, metrics *monitoring.Metrics, log *zap.Logger) *ScanService {
	if log == nil {
		log = zap.NewNop()
	}

	workers := pool.NewWorkerPool(cfg.BatchSize, cfg.BatchSize*2)
	workers.Start(context.Background())

	return &ScanService{
		store:   store,
		cache:   cache,
		clf:     clf,
		cfg:     cfg,
		metrics: metrics,
		log:     log,
		workers: workers,
	}
}

// Close 停止内部协程池
func (s *ScanService) Close() {
	s.workers.Stop()
}

// messageOutcome 单封消息的处理结果
type messageOutcome struct {
	skipped   bool
	created   bool
	duplicate bool
	err       error
}

// Scan 对指定用户的收件箱执行一次完整扫描。
//
// 消息按固定批大小并行拉取，批内单封失败只记入汇总，
// 不会中断整个扫描。列表调用本身失败（含令牌失效）才向上返回。
func (s *ScanService) Scan(ctx context.Context, src inbox.Source, userID string) (*domain.ScanSummary, error) {
	started := time.Now()

	ids, err := src.ListMessageIDs(ctx, s.cfg.Query, s.cfg.MaxResults)
	if err != nil {
		return nil, err
	}

	s.log.Info("starting inbox scan",
		zap.String("user_id", userID),
		zap.Int("messages", len(ids)),
		zap.String("query", s.cfg.Query),
	)
	if s.metrics != nil {
		s.metrics.ScansStarted.Inc()
	}

	summary := &domain.ScanSummary{TotalMessages: len(ids)}
	var mu sync.Mutex

	batchSize := s.cfg.BatchSize
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		var wg sync.WaitGroup
		for _, id := range ids[start:end] {
			id := id
			wg.Add(1)
			s.workers.Submit(func() {
				defer wg.Done()
				outcome := s.processMessage(ctx, src, userID, id)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case outcome.err != nil:
					summary.Errors = append(summary.Errors, fmt.Sprintf("message %s: %v", id, outcome.err))
				case outcome.skipped:
					summary.SkippedMessages++
				default:
					summary.ProcessedMessages++
					if outcome.created {
						summary.DealsCreated++
					}
					if outcome.duplicate {
						summary.DuplicateDeals++
					}
				}
			})
		}
		wg.Wait()
	}

	if err := s.store.UpdateLastSync(userID); err != nil {
		s.log.Warn("failed to update last sync time", zap.String("user_id", userID), zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.ScanDuration.Observe(time.Since(started).Seconds())
		s.metrics.DealsCreated.Add(float64(summary.DealsCreated))
	}

	s.log.Info("inbox scan completed",
		zap.String("user_id", userID),
		zap.Int("processed", summary.ProcessedMessages),
		zap.Int("skipped", summary.SkippedMessages),
		zap.Int("deals_created", summary.DealsCreated),
		zap.Int("duplicates", summary.DuplicateDeals),
		zap.Int("errors", len(summary.Errors)),
		zap.Duration("duration", time.Since(started)),
	)

	return summary, nil
}

// processMessage 处理单封消息：标记检查 → 拉取 → 分类 → 去重落库 → 写标记
func (s *ScanService) processMessage(ctx context.Context, src inbox.Source, userID, messageID string) messageOutcome {
	scanned, err := s.hasMarker(messageID)
	if err != nil {
		return messageOutcome{err: fmt.Errorf("marker lookup failed: %w", err)}
	}
	if scanned {
		return messageOutcome{skipped: true}
	}

	msg, err := src.GetMessage(ctx, messageID)
	if err != nil {
		// 单封拉取失败不写标记，下次扫描可以重试
		if s.metrics != nil {
			s.metrics.MessageErrors.Inc()
		}
		return messageOutcome{err: err}
	}

	result, err := s.clf.Classify(ctx, msg)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ClassifierErrors.Inc()
		}
		return messageOutcome{err: fmt.Errorf("classification failed: %w", err)}
	}
	if s.metrics != nil {
		s.metrics.MessagesClassified.Inc()
	}

	contentHash := classifier.ContentHash(msg.Subject, msg.Body, result.Compensation)

	outcome := messageOutcome{}
	if result.IsDeal && result.Confidence >= s.cfg.MinConfidence {
		now := time.Now()
		deal := &domain.Deal{
			ID:           uuid.New().String(),
			UserID:       userID,
			MessageID:    msg.ID,
			ThreadID:     msg.ThreadID,
			Subject:      msg.Subject,
			From:         msg.From,
			Brand:        result.Brand,
			Compensation: result.Compensation,
			Deliverables: result.Deliverables,
			Deadline:     result.Deadline,
			PaymentTerms: result.PaymentTerms,
			Type:         result.Type,
			Confidence:   result.Confidence,
			Reason:       result.Reason,
			ContentHash:  contentHash,
			Status:       domain.StatusNew,
			Source:       result.Source,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		created, err := s.store.CreateDealIfAbsent(deal)
		if err != nil {
			return messageOutcome{err: fmt.Errorf("failed to persist deal: %w", err)}
		}
		outcome.created = created
		outcome.duplicate = !created
	}

	marker := &domain.ScanMarker{
		MessageID:   messageID,
		UserID:      userID,
		ContentHash: contentHash,
		ScannedAt:   time.Now(),
	}
	if err := s.store.SaveScanMarker(marker); err != nil {
		return messageOutcome{err: fmt.Errorf("failed to save scan marker: %w", err)}
	}
	if s.cache != nil {
		if err := s.cache.SetMarker(marker); err != nil {
			s.log.Warn("failed to cache scan marker", zap.String("message_id", messageID), zap.Error(err))
		}
	}

	return outcome
}

// hasMarker 先查缓存再查持久存储
func (s *ScanService) hasMarker(messageID string) (bool, error) {
	if s.cache != nil {
		if found, err := s.cache.HasMarker(messageID); err == nil && found {
			return true, nil
		}
	}
	return s.store.HasScanMarker(messageID)
}
