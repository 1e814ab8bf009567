package service

import (
	"context"

	"github.com/mannmitra/engage/internal/repository"
	"github.com/mannmitra/engage/internal/schema"
)

// 仓储依赖的最小接口集合（ISP）

type ActivityRepository interface {
	Insert(ctx context.Context, event *schema.ActivityEvent) (bool, error)
	ReplaceForDay(ctx context.Context, event *schema.ActivityEvent) (bool, error)
	GetByDate(ctx context.Context, userID, date string) ([]schema.ActivityEvent, error)
	DistinctDates(ctx context.Context, userID string) ([]string, error)
	RecentActiveDates(ctx context.Context, userID, sinceDate string) ([]string, error)
	DeleteOlderThan(ctx context.Context, cutoffDate string) (int64, error)
}

type PointsRepository interface {
	Credit(ctx context.Context, userID string, points int64) error
	GetTotal(ctx context.Context, userID string) (int64, error)
}

type BadgeRepository interface {
	EnsureCatalog(ctx context.Context, seeds []schema.Badge) error
	ListAll(ctx context.Context) ([]schema.Badge, error)
	ListOwned(ctx context.Context, userID string) ([]repository.OwnedBadge, error)
	OwnedIDs(ctx context.Context, userID string) (map[int64]struct{}, error)
	Award(ctx context.Context, userID string, badgeID int64, awardedOn string) (bool, error)
}
