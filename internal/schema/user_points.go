package schema

import "time"

// UserPoints 用户累计经验值。只增不减，与活动日志的滚动清理解耦：
// 日志是临时的，积分是永久的派生事实。
type UserPoints struct {
	UserID      string    `gorm:"primaryKey;size:100" json:"user_id"`
	TotalPoints int64     `gorm:"not null;default:0" json:"total_points"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (UserPoints) TableName() string {
	return "user_points"
}
