package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mannmitra/engage/internal/pkg/buildinfo"
	"github.com/mannmitra/engage/internal/pkg/config"
	"github.com/mannmitra/engage/internal/repository"
	"github.com/mannmitra/engage/internal/schema"
	"github.com/mannmitra/engage/internal/service"
)

var (
	cfgFile string
	userID  string
	cfg     *config.Config
	db      *repository.Database
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "engage",
		Short: "MannMitra Engage - 活动追踪与徽章引擎",
		Long:  `MannMitra Engage 记录陪伴应用里的用户活动，维护经验值与连续活跃天数，并按阈值授予徽章。`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// 加载配置
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				slog.Error("加载配置失败", "error", err)
				os.Exit(1)
			}
			config.SetupLogger(cfg.App.LogLevel)

			// 初始化数据库
			db, err = repository.NewDatabase(cfg.Storage.DBPath)
			if err != nil {
				slog.Error("初始化数据库失败", "error", err)
				os.Exit(1)
			}

			if userID == "" {
				userID = cfg.Engage.DefaultUser
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if db != nil {
				db.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "用户标识（默认取配置 engage.default_user）")

	// 添加子命令
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(visitCmd())
	rootCmd.AddCommand(moodCmd())
	rootCmd.AddCommand(journalCmd())
	rootCmd.AddCommand(questCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(badgesCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(datesCmd())
	rootCmd.AddCommand(pruneCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newServices 组装服务（徽章目录顺手播种，幂等）
func newServices(ctx context.Context) (*service.TrackerService, *service.BadgeService, *service.SummaryService) {
	activityRepo := repository.NewActivityRepository(db.DB)
	pointsRepo := repository.NewPointsRepository(db.DB)
	badgeRepo := repository.NewBadgeRepository(db.DB)

	badgeService := service.NewBadgeService(badgeRepo, pointsRepo, activityRepo)
	if err := badgeService.SeedCatalog(ctx); err != nil {
		slog.Error("播种徽章目录失败", "error", err)
	}

	tracker := service.NewTrackerService(activityRepo, pointsRepo, badgeService, &service.TrackerConfig{
		RetentionDays: cfg.Engage.RetentionDays,
		AppendOnly:    cfg.Engage.AppendOnly,
		MaxRetries:    cfg.Engage.MaxRetries,
		RetryDelay:    time.Duration(cfg.Engage.RetryDelayMs) * time.Millisecond,
	})
	summary := service.NewSummaryService(activityRepo)
	return tracker, badgeService, summary
}

// printLogResult 打印一次上报的结果
func printLogResult(res service.LogResult) {
	if !res.Inserted {
		fmt.Println("今天已记录过，本次不重复计分")
		return
	}
	fmt.Printf("已记录: +%d XP（累计 %d）\n", res.PointsCredited, res.NewTotal)
	for _, b := range res.NewBadges {
		fmt.Printf("🎉 新徽章: %s %s\n", b.Icon, b.Name)
	}
}

// logCmd 通用上报命令
func logCmd() *cobra.Command {
	var payloadJSON string

	cmd := &cobra.Command{
		Use:   "log <kind>",
		Short: "上报一条活动记录（通用入口）",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			tracker, _, _ := newServices(ctx)

			payload := schema.JSONMap{}
			if strings.TrimSpace(payloadJSON) != "" {
				if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
					fmt.Printf("负载 JSON 解析失败: %v\n", err)
					os.Exit(1)
				}
			}

			res, err := tracker.LogActivity(ctx, userID, service.Kind(args[0]), payload)
			if err != nil {
				fmt.Printf("上报失败: %v\n", err)
				os.Exit(1)
			}
			printLogResult(res)
		},
	}

	cmd.Flags().StringVarP(&payloadJSON, "payload", "p", "", "负载 JSON，例如 '{\"quest_id\":1,\"xp\":10}'")
	return cmd
}

// visitCmd 每日访问打卡
func visitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "visit",
		Short: "记录每日访问（每天至多计一次）",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			tracker, _, _ := newServices(ctx)
			res, err := tracker.LogDailyVisit(ctx, userID)
			if err != nil {
				fmt.Printf("上报失败: %v\n", err)
				os.Exit(1)
			}
			printLogResult(res)
		},
	}
}

// moodCmd 心情打卡
func moodCmd() *cobra.Command {
	var who5 int
	var mood string

	cmd := &cobra.Command{
		Use:   "mood",
		Short: "记录心情打卡（WHO-5 得分，同日以最后一次为准）",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			tracker, _, _ := newServices(ctx)
			res, err := tracker.LogMoodEntry(ctx, userID, who5, mood)
			if err != nil {
				fmt.Printf("上报失败: %v\n", err)
				os.Exit(1)
			}
			printLogResult(res)
		},
	}

	cmd.Flags().IntVar(&who5, "who5", 0, "WHO-5 得分（0-25）")
	cmd.Flags().StringVar(&mood, "name", "", "心情名称")
	return cmd
}

// journalCmd 日记
func journalCmd() *cobra.Command {
	var notes []string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "记录日记（每天至多计一次分）",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			tracker, _, _ := newServices(ctx)
			res, err := tracker.LogJournalEntry(ctx, userID, notes)
			if err != nil {
				fmt.Printf("上报失败: %v\n", err)
				os.Exit(1)
			}
			printLogResult(res)
		},
	}

	cmd.Flags().StringArrayVarP(&notes, "note", "n", nil, "一条日记回答，可重复传入")
	return cmd
}

// questCmd 任务完成
func questCmd() *cobra.Command {
	var questID int64
	var title string
	var xp int64

	cmd := &cobra.Command{
		Use:   "quest",
		Short: "记录任务完成（同日不同任务分别计分）",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			tracker, _, _ := newServices(ctx)
			res, err := tracker.LogQuestComplete(ctx, userID, questID, title, xp)
			if err != nil {
				fmt.Printf("上报失败: %v\n", err)
				os.Exit(1)
			}
			printLogResult(res)
		},
	}

	cmd.Flags().Int64Var(&questID, "id", 0, "任务 ID")
	cmd.Flags().StringVar(&title, "title", "", "任务标题")
	cmd.Flags().Int64Var(&xp, "xp", 0, "本次任务经验值（0 取默认）")
	return cmd
}

// statsCmd 查询累计经验值与连续活跃天数
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "查看累计经验值与连续活跃天数",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			tracker, _, _ := newServices(ctx)

			total, err := tracker.TotalPoints(ctx, userID)
			if err != nil {
				fmt.Printf("查询失败: %v\n", err)
				os.Exit(1)
			}
			streak, err := tracker.CurrentStreak(ctx, userID)
			if err != nil {
				fmt.Printf("查询失败: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("用户: %s\n", userID)
			fmt.Printf("累计 XP: %d\n", total)
			fmt.Printf("连续活跃: %d 天\n", streak)
		},
	}
}

// badgesCmd 查看徽章
func badgesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "badges",
		Short: "查看已拥有与未解锁的徽章",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			_, badgeService, _ := newServices(ctx)

			owned, locked, err := badgeService.ListBadges(ctx, userID)
			if err != nil {
				fmt.Printf("查询失败: %v\n", err)
				os.Exit(1)
			}

			fmt.Println("已拥有:")
			if len(owned) == 0 {
				fmt.Println("  （暂无，坚持打卡赢取徽章）")
			}
			for _, b := range owned {
				fmt.Printf("  %s %s — %s（%s 获得）\n", b.Icon, b.Name, b.Description, b.AwardedOn)
			}

			fmt.Println("未解锁:")
			for _, b := range locked {
				var tip string
				if b.Criteria == schema.CriteriaStreak {
					tip = fmt.Sprintf("连续活跃 %d 天", b.Threshold)
				} else {
					tip = fmt.Sprintf("累计 %d XP", b.Threshold)
				}
				fmt.Printf("  %s %s — %s\n", b.Icon, b.Name, tip)
			}
		},
	}
}

// summaryCmd 日摘要
func summaryCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "查看某天的活动摘要",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			_, _, summaryService := newServices(ctx)

			if date == "" {
				date = time.Now().Format("2006-01-02")
			}

			rows, err := summaryService.Summarize(ctx, userID, date)
			if err != nil {
				fmt.Printf("查询失败: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("=== %s ===\n", date)
			for _, r := range rows {
				details := strings.ReplaceAll(r.Details, "\n", "\n    ")
				fmt.Printf("%s\n    %s\n", r.Activity, details)
			}
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "日期 YYYY-MM-DD（默认今天）")
	return cmd
}

// datesCmd 最近活跃日
func datesCmd() *cobra.Command {
	var window int

	cmd := &cobra.Command{
		Use:   "dates",
		Short: "查看最近窗口内的活跃日",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			tracker, _, _ := newServices(ctx)

			dates, err := tracker.RecentActiveDates(ctx, userID, window)
			if err != nil {
				fmt.Printf("查询失败: %v\n", err)
				os.Exit(1)
			}
			if len(dates) == 0 {
				fmt.Println("窗口内暂无活动")
				return
			}
			for _, d := range dates {
				fmt.Println(d)
			}
		},
	}

	cmd.Flags().IntVarP(&window, "window", "w", 30, "窗口天数")
	return cmd
}

// pruneCmd 手动清理
func pruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "手动清理保留窗口之外的活动日志（积分与徽章不受影响）",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			activityRepo := repository.NewActivityRepository(db.DB)

			cutoff := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
			deleted, err := activityRepo.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				fmt.Printf("清理失败: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("已清理 %d 条（早于 %s）\n", deleted, cutoff)
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "保留天数")
	return cmd
}

// versionCmd 版本信息
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("engage %s (%s)\n", buildinfo.Version, buildinfo.Commit)
		},
	}
}
