package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mannmitra/engage/internal/schema"
)

// TrackerService 活动追踪编排：落库 → 记分 → 评估徽章 → 清理保留窗口。
// 追踪是尽力而为的参与度统计，落库之后的每一步失败都只记日志、不向上冒泡，
// 丢一条记录绝不能阻塞触发它的功能页面。
type TrackerService struct {
	activities ActivityRepository
	points     PointsRepository
	badges     *BadgeService
	cfg        *TrackerConfig

	now func() time.Time
}

// TrackerConfig 追踪服务配置
type TrackerConfig struct {
	RetentionDays int           // 活动日志保留天数
	AppendOnly    bool          // 只追加模式：同日重报不再覆盖旧值（保留审计历史）
	MaxRetries    int           // 占锁重试上限
	RetryDelay    time.Duration // 重试基础间隔（按次递增）
}

// NewTrackerService 创建追踪服务
func NewTrackerService(activities ActivityRepository, points PointsRepository, badges *BadgeService, cfg *TrackerConfig) *TrackerService {
	if cfg == nil {
		cfg = &TrackerConfig{}
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 50 * time.Millisecond
	}
	return &TrackerService{
		activities: activities,
		points:     points,
		badges:     badges,
		cfg:        cfg,
		now:        time.Now,
	}
}

// LogResult 一次活动上报的结果
type LogResult struct {
	Inserted       bool           // 是否真正落库（重复提交为 false）
	PointsCredited int64          // 本次记入的经验值
	NewTotal       int64          // 记分后的累计经验值
	NewBadges      []schema.Badge // 本次新授予的徽章
}

// LogActivity 唯一的写入口。只有真正落库（非重复）的事件才触发记分与徽章评估，
// 重放同一事件不会重复记分。空 userID 按空操作处理。
func (s *TrackerService) LogActivity(ctx context.Context, userID string, kind Kind, payload schema.JSONMap) (LogResult, error) {
	var res LogResult
	if strings.TrimSpace(userID) == "" {
		slog.Warn("忽略空用户的活动上报", "kind", kind)
		return res, nil
	}
	if payload == nil {
		payload = schema.JSONMap{}
	}
	if !kind.Known() {
		slog.Warn("未知活动类别，按零分记录", "kind", kind)
	}

	today := s.now().Format(dateLayout)
	event := &schema.ActivityEvent{
		UserID:      userID,
		Kind:        string(kind),
		Date:        today,
		Payload:     payload,
		Fingerprint: fingerprintOf(kind, payload),
	}

	inserted, err := s.recordWithRetry(ctx, kind, event)
	if err != nil {
		return res, err
	}
	if !inserted {
		slog.Debug("重复活动上报，跳过记分", "user", userID, "kind", kind, "date", today)
		return res, nil
	}
	res.Inserted = true

	// 记分：负载显式携带 xp 时以负载为准（显式 0 就是 0 分），缺失才取类别默认值
	points := kind.DefaultPoints()
	if xp, ok := schema.GetInt64(payload, "xp"); ok {
		points = xp
		if points < 0 {
			points = 0
		}
	}
	if points > 0 {
		if err := s.points.Credit(ctx, userID, points); err != nil {
			slog.Error("记分失败", "user", userID, "kind", kind, "error", err)
		} else {
			res.PointsCredited = points
		}
	}
	if total, err := s.points.GetTotal(ctx, userID); err == nil {
		res.NewTotal = total
	}

	// 记分之后评估徽章：单个事件可能一次跨越多个阈值
	newBadges, err := s.badges.EvaluateAndAward(ctx, userID)
	if err != nil {
		slog.Error("评估徽章失败", "user", userID, "error", err)
	} else {
		res.NewBadges = newBadges
	}

	// 写后顺手清理保留窗口之外的旧日志，无可清理时是廉价空操作
	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays).Format(dateLayout)
	if _, err := s.activities.DeleteOlderThan(ctx, cutoff); err != nil {
		slog.Error("清理旧活动记录失败", "error", err)
	}

	return res, nil
}

// record 按类别策略选择写入方式
func (s *TrackerService) record(ctx context.Context, kind Kind, event *schema.ActivityEvent) (bool, error) {
	if kind.Policy() == DedupeLatestWins && !s.cfg.AppendOnly {
		return s.activities.ReplaceForDay(ctx, event)
	}
	return s.activities.Insert(ctx, event)
}

// recordWithRetry 占锁时做有界退避重试，耗尽后以 ErrTransientLock 上浮
func (s *TrackerService) recordWithRetry(ctx context.Context, kind Kind, event *schema.ActivityEvent) (bool, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		inserted, err := s.record(ctx, kind, event)
		if err == nil || !isBusy(err) {
			return inserted, err
		}
		lastErr = err
		slog.Warn("存储占锁，稍后重试", "attempt", attempt+1, "error", err)
		time.Sleep(s.cfg.RetryDelay * time.Duration(attempt+1))
	}
	return false, fmt.Errorf("%w: %v", ErrTransientLock, lastErr)
}

// TotalPoints 查询累计经验值，未知用户为 0
func (s *TrackerService) TotalPoints(ctx context.Context, userID string) (int64, error) {
	return s.points.GetTotal(ctx, userID)
}

// CurrentStreak 查询截至今天的连续活跃天数
func (s *TrackerService) CurrentStreak(ctx context.Context, userID string) (int, error) {
	dates, err := s.activities.DistinctDates(ctx, userID)
	if err != nil {
		return 0, err
	}
	return streakFrom(dates, s.now()), nil
}

// RecentActiveDates 查询最近 windowDays 天内的活跃日，按日期倒序
func (s *TrackerService) RecentActiveDates(ctx context.Context, userID string, windowDays int) ([]string, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.RetentionDays
	}
	since := s.now().AddDate(0, 0, -windowDays).Format(dateLayout)
	return s.activities.RecentActiveDates(ctx, userID, since)
}
