package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mannmitra/engage/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PointsRepository 经验值账本仓储
type PointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository 创建仓储
func NewPointsRepository(db *gorm.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// Credit 原子累加经验值，首次记账时隐式建行。points <= 0 为空操作。
func (r *PointsRepository) Credit(ctx context.Context, userID string, points int64) error {
	if points <= 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_points": gorm.Expr("total_points + ?", points),
			}),
		}).
		Create(&schema.UserPoints{UserID: userID, TotalPoints: points}).Error
	if err != nil {
		return fmt.Errorf("累加经验值失败: %w", err)
	}
	return nil
}

// GetTotal 查询累计经验值，未知用户返回 0
func (r *PointsRepository) GetTotal(ctx context.Context, userID string) (int64, error) {
	var row schema.UserPoints
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("查询经验值失败: %w", err)
	}
	return row.TotalPoints, nil
}
