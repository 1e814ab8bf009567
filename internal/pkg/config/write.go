package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取可执行文件路径失败: %w", err)
	}
	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, "config", "config.yaml"), nil
}

// Default 返回全默认值配置（首次启动时写入样例配置文件用）
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:     "mannmitra-engage",
			Version:  "0.1.0",
			LogLevel: "info",
		},
		Storage: StorageConfig{
			DBPath: "./data/mannmitra.db",
		},
		Engage: EngageConfig{
			DefaultUser:   "demo-user",
			RetentionDays: 30,
			AppendOnly:    false,
			MaxRetries:    3,
			RetryDelayMs:  50,
		},
	}
}

func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg 不能为空")
	}
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"version":   cfg.App.Version,
			"log_level": cfg.App.LogLevel,
		},
		"storage": map[string]any{
			"db_path": cfg.Storage.DBPath,
		},
		"engage": map[string]any{
			"default_user":   cfg.Engage.DefaultUser,
			"retention_days": cfg.Engage.RetentionDays,
			"append_only":    cfg.Engage.AppendOnly,
			"max_retries":    cfg.Engage.MaxRetries,
			"retry_delay_ms": cfg.Engage.RetryDelayMs,
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
