package service

import (
	"errors"
	"strings"
)

// ErrTransientLock 存储层持续占锁、重试耗尽后的瞬态失败，调用方可稍后重试
var ErrTransientLock = errors.New("存储繁忙，请稍后重试")

// isBusy 判断是否为 SQLite 占锁类错误（多实例写同一库时的瞬态竞争）
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked")
}
