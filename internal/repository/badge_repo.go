package repository

import (
	"context"
	"fmt"

	"github.com/mannmitra/engage/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OwnedBadge 已授予徽章（目录字段 + 授予日期）
type OwnedBadge struct {
	schema.Badge
	AwardedOn string `json:"awarded_on"`
}

// BadgeRepository 徽章目录与授予记录仓储
type BadgeRepository struct {
	db *gorm.DB
}

// NewBadgeRepository 创建仓储
func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// EnsureCatalog 幂等播种徽章目录：按 name 补插缺失项，图标无条件刷新
// （旧库里的图标也会被修正）。
func (r *BadgeRepository) EnsureCatalog(ctx context.Context, seeds []schema.Badge) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range seeds {
			seed := seeds[i]
			seed.ID = 0
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).Create(&seed).Error; err != nil {
				return fmt.Errorf("播种徽章失败: %w", err)
			}
			if err := tx.Model(&schema.Badge{}).
				Where("name = ?", seed.Name).
				Update("icon", seed.Icon).Error; err != nil {
				return fmt.Errorf("刷新徽章图标失败: %w", err)
			}
		}
		return nil
	})
}

// ListAll 返回完整徽章目录，按 ID 排序
func (r *BadgeRepository) ListAll(ctx context.Context) ([]schema.Badge, error) {
	var badges []schema.Badge
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("查询徽章目录失败: %w", err)
	}
	return badges, nil
}

// ListOwned 返回某用户已授予的徽章，按授予日期倒序
func (r *BadgeRepository) ListOwned(ctx context.Context, userID string) ([]OwnedBadge, error) {
	var owned []OwnedBadge
	err := r.db.WithContext(ctx).
		Model(&schema.Badge{}).
		Select("badges.*, user_badges.awarded_on").
		Joins("JOIN user_badges ON user_badges.badge_id = badges.id").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.awarded_on DESC, badges.id ASC").
		Scan(&owned).Error
	if err != nil {
		return nil, fmt.Errorf("查询已授予徽章失败: %w", err)
	}
	return owned, nil
}

// OwnedIDs 返回某用户已拥有的徽章 ID 集合
func (r *BadgeRepository) OwnedIDs(ctx context.Context, userID string) (map[int64]struct{}, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&schema.UserBadge{}).
		Where("user_id = ?", userID).
		Pluck("badge_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("查询徽章授予记录失败: %w", err)
	}
	owned := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		owned[id] = struct{}{}
	}
	return owned, nil
}

// Award 授予徽章。(user_id, badge_id) 唯一索引保证至多授予一次，
// 并发重复授予静默归并为一条，返回是否真正新增。
func (r *BadgeRepository) Award(ctx context.Context, userID string, badgeID int64, awardedOn string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&schema.UserBadge{UserID: userID, BadgeID: badgeID, AwardedOn: awardedOn})
	if res.Error != nil {
		return false, fmt.Errorf("写入徽章授予记录失败: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
