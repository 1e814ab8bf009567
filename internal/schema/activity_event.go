package schema

import "time"

// ActivityEvent 用户活动日志：某用户某天完成的一次可追踪行为。
// 数据量级：滚动保留窗口（默认 30 天）内的行级日志，写入后定期清理。
// 去重依据为 (user_id, kind, date, fingerprint) 唯一索引，插入顺序即 ID 顺序。
type ActivityEvent struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string    `gorm:"size:100;not null;index;uniqueIndex:uniq_user_kind_date_fp,priority:1" json:"user_id"`
	Kind        string    `gorm:"size:32;not null;uniqueIndex:uniq_user_kind_date_fp,priority:2" json:"kind"`
	Date        string    `gorm:"size:10;not null;index;uniqueIndex:uniq_user_kind_date_fp,priority:3" json:"date"` // YYYY-MM-DD（用户本地日）
	Payload     JSONMap   `gorm:"type:text" json:"payload"`
	Fingerprint string    `gorm:"size:40;not null;uniqueIndex:uniq_user_kind_date_fp,priority:4" json:"fingerprint"` // SHA-1 hex
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (ActivityEvent) TableName() string {
	return "activity_events"
}
