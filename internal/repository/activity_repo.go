package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mannmitra/engage/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityRepository 活动日志仓储
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository 创建仓储
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Insert 插入单条活动记录。命中 (user_id, kind, date, fingerprint) 唯一索引
// 视为重复提交，返回 false 而非错误。
func (r *ActivityRepository) Insert(ctx context.Context, event *schema.ActivityEvent) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if res.Error != nil {
		return false, fmt.Errorf("写入活动记录失败: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ReplaceForDay 覆盖写入：同一事务内先删除该用户当天同 kind 的旧记录再插入新记录，
// 避免并发读者看到“短暂缺行”的中间态。指纹完全相同时视为重复提交，不删不写。
func (r *ActivityRepository) ReplaceForDay(ctx context.Context, event *schema.ActivityEvent) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var same int64
		if err := tx.Model(&schema.ActivityEvent{}).
			Where("user_id = ? AND kind = ? AND date = ? AND fingerprint = ?",
				event.UserID, event.Kind, event.Date, event.Fingerprint).
			Count(&same).Error; err != nil {
			return fmt.Errorf("查询活动记录失败: %w", err)
		}
		if same > 0 {
			return nil
		}

		if err := tx.
			Where("user_id = ? AND kind = ? AND date = ?", event.UserID, event.Kind, event.Date).
			Delete(&schema.ActivityEvent{}).Error; err != nil {
			return fmt.Errorf("删除旧活动记录失败: %w", err)
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(event)
		if res.Error != nil {
			return fmt.Errorf("写入活动记录失败: %w", res.Error)
		}
		inserted = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// GetByDate 按插入顺序返回某用户某天的全部活动
func (r *ActivityRepository) GetByDate(ctx context.Context, userID, date string) ([]schema.ActivityEvent, error) {
	var events []schema.ActivityEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("查询活动记录失败: %w", err)
	}
	return events, nil
}

// DistinctDates 返回某用户所有活跃日（去重，不保证顺序语义，调用方自行集合化）
func (r *ActivityRepository) DistinctDates(ctx context.Context, userID string) ([]string, error) {
	var dates []string
	err := r.db.WithContext(ctx).
		Model(&schema.ActivityEvent{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("查询活跃日失败: %w", err)
	}
	return dates, nil
}

// RecentActiveDates 返回 sinceDate（含）之后的活跃日，按日期倒序
func (r *ActivityRepository) RecentActiveDates(ctx context.Context, userID, sinceDate string) ([]string, error) {
	var dates []string
	err := r.db.WithContext(ctx).
		Model(&schema.ActivityEvent{}).
		Where("user_id = ? AND date >= ?", userID, sinceDate).
		Distinct().
		Order("date DESC").
		Pluck("date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("查询活跃日失败: %w", err)
	}
	return dates, nil
}

// DeleteOlderThan 删除早于 cutoffDate 的活动记录（滚动保留窗口）。
// 积分与徽章不受影响，它们是永久化的派生事实。
func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoffDate string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("date < ?", cutoffDate).
		Delete(&schema.ActivityEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("清理旧活动记录失败: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		slog.Info("清理旧活动记录", "deleted", result.RowsAffected, "cutoff", cutoffDate)
	}
	return result.RowsAffected, nil
}
