package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mannmitra/engage/internal/repository"
	"github.com/mannmitra/engage/internal/schema"
)

// CatalogSeeds 默认徽章目录。name 是与线上数据对齐的唯一键，不要改动；
// 图标等展示字段每次播种都会刷新。
func CatalogSeeds() []schema.Badge {
	return []schema.Badge{
		// 连续活跃
		{Name: "7-Day Streak", Description: "Opened MannMitra 7 days in a row", Icon: "🔥", Criteria: schema.CriteriaStreak, Threshold: 7},
		{Name: "14-Day Streak", Description: "Showed up 14 days in a row", Icon: "🔥🔥", Criteria: schema.CriteriaStreak, Threshold: 14},
		{Name: "30-Day Streak", Description: "Consistency hero: 30 days straight", Icon: "🔥🔥🔥", Criteria: schema.CriteriaStreak, Threshold: 30},
		{Name: "60-Day Streak", Description: "Unstoppable: 60 days streak", Icon: "🔥🔥🔥🔥", Criteria: schema.CriteriaStreak, Threshold: 60},
		{Name: "90-Day Streak", Description: "Showed up 90 days in a row", Icon: "🔥🔥🔥🔥🔥", Criteria: schema.CriteriaStreak, Threshold: 90},
		// 累计经验值
		{Name: "Level 1: 100 XP", Description: "Earned 100 XP", Icon: "⭐", Criteria: schema.CriteriaPoints, Threshold: 100},
		{Name: "Level 2: 250 XP", Description: "Earned 250 XP", Icon: "⭐⭐", Criteria: schema.CriteriaPoints, Threshold: 250},
		{Name: "Level 3: 500 XP", Description: "Earned 500 XP", Icon: "⭐⭐⭐", Criteria: schema.CriteriaPoints, Threshold: 500},
		{Name: "Level 4: 1000 XP", Description: "Earned 1000 XP", Icon: "⭐⭐⭐⭐", Criteria: schema.CriteriaPoints, Threshold: 1000},
		{Name: "Level 5: 1500 XP", Description: "Earned 1500 XP", Icon: "⭐⭐⭐⭐⭐", Criteria: schema.CriteriaPoints, Threshold: 1500},
	}
}

// BadgeService 徽章授予：在每次成功落库的活动之后评估所有未拥有的徽章
type BadgeService struct {
	badges     BadgeRepository
	points     PointsRepository
	activities ActivityRepository

	now func() time.Time
}

// NewBadgeService 创建徽章服务
func NewBadgeService(badges BadgeRepository, points PointsRepository, activities ActivityRepository) *BadgeService {
	return &BadgeService{
		badges:     badges,
		points:     points,
		activities: activities,
		now:        time.Now,
	}
}

// SeedCatalog 幂等播种徽章目录（进程启动时调用一次即可）
func (s *BadgeService) SeedCatalog(ctx context.Context) error {
	return s.badges.EnsureCatalog(ctx, CatalogSeeds())
}

// EvaluateAndAward 评估并授予满足条件的徽章，返回本次新授予的列表。
// 单次评估可跨越多个阈值一次授予多枚；已拥有的不重复授予，也永不撤销。
func (s *BadgeService) EvaluateAndAward(ctx context.Context, userID string) ([]schema.Badge, error) {
	total, err := s.points.GetTotal(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("读取经验值失败: %w", err)
	}
	dates, err := s.activities.DistinctDates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("读取活跃日失败: %w", err)
	}
	streak := streakFrom(dates, s.now())

	owned, err := s.badges.OwnedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.badges.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now().Format(dateLayout)
	var awarded []schema.Badge
	for _, b := range catalog {
		if _, has := owned[b.ID]; has {
			continue
		}
		meets := false
		switch b.Criteria {
		case schema.CriteriaStreak:
			meets = int64(streak) >= b.Threshold
		case schema.CriteriaPoints:
			meets = total >= b.Threshold
		}
		if !meets {
			continue
		}
		// 并发下另一实例可能已抢先授予，插入被唯一索引归并即可
		created, err := s.badges.Award(ctx, userID, b.ID, today)
		if err != nil {
			return awarded, err
		}
		if created {
			slog.Info("授予徽章", "user", userID, "badge", b.Name, "awarded_on", today)
			awarded = append(awarded, b)
		}
	}
	return awarded, nil
}

// ListBadges 返回某用户已拥有与未解锁的徽章
func (s *BadgeService) ListBadges(ctx context.Context, userID string) (owned []repository.OwnedBadge, locked []schema.Badge, err error) {
	owned, err = s.badges.ListOwned(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := s.badges.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	ownedIDs := make(map[int64]struct{}, len(owned))
	for _, b := range owned {
		ownedIDs[b.ID] = struct{}{}
	}
	for _, b := range catalog {
		if _, has := ownedIDs[b.ID]; !has {
			locked = append(locked, b)
		}
	}
	return owned, locked, nil
}
