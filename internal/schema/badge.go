package schema

import "time"

// 徽章判定条件
const (
	CriteriaStreak = "streak" // 连续活跃天数
	CriteriaPoints = "points" // 累计经验值
)

// Badge 徽章目录（不可变参考数据）。启动时幂等播种：按 name 补插缺失项，
// 图标等展示字段无条件刷新，不影响已授予记录。
// 数据量级：十级
type Badge struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	Icon        string `gorm:"size:50" json:"icon"`
	Criteria    string `gorm:"size:10;not null" json:"criteria"` // streak | points
	Threshold   int64  `gorm:"not null" json:"threshold"`
}

// TableName 指定表名
func (Badge) TableName() string {
	return "badges"
}

// UserBadge 徽章授予记录。(user_id, badge_id) 唯一，一旦授予永不撤销，
// 后续连续天数回落也不回收（成就永久化约定）。
type UserBadge struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"size:100;not null;index;uniqueIndex:uniq_user_badge,priority:1" json:"user_id"`
	BadgeID   int64     `gorm:"not null;uniqueIndex:uniq_user_badge,priority:2" json:"badge_id"`
	AwardedOn string    `gorm:"size:10;not null" json:"awarded_on"` // YYYY-MM-DD
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (UserBadge) TableName() string {
	return "user_badges"
}
