package schema

import "time"

// SchemaMeta 记录当前数据库的 schema 版本号，升级时据此判断是否需要迁移，
// 而不是每次启动都无条件 AutoMigrate。表内只有一行（ID=1）。
type SchemaMeta struct {
	ID            int       `gorm:"primaryKey"`
	SchemaVersion int       `gorm:"not null"`
	MigratedAt    time.Time `gorm:"autoUpdateTime"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (SchemaMeta) TableName() string {
	return "schema_meta"
}
