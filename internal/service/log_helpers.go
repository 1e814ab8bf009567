package service

import (
	"context"
	"strings"

	"github.com/mannmitra/engage/internal/schema"
)

// 各页面调用的带类型上报入口：在边界处把字段收敛成规范负载，
// 空值不写入，避免把 ""/0 污染进指纹投影。

// LogDailyVisit 记录每日访问（每天至多一次）
func (s *TrackerService) LogDailyVisit(ctx context.Context, userID string) (LogResult, error) {
	return s.LogActivity(ctx, userID, KindDailyVisit, nil)
}

// LogSproutView 记录每日一句的展示
func (s *TrackerService) LogSproutView(ctx context.Context, userID, quote, author, tip string) (LogResult, error) {
	payload := schema.JSONMap{}
	if strings.TrimSpace(quote) != "" {
		payload["quote"] = strings.TrimSpace(quote)
	}
	if strings.TrimSpace(author) != "" {
		payload["author"] = strings.TrimSpace(author)
	}
	if strings.TrimSpace(tip) != "" {
		payload["tip"] = strings.TrimSpace(tip)
	}
	return s.LogActivity(ctx, userID, KindSproutView, payload)
}

// LogAffirmationOpen 记录肯定语的打开
func (s *TrackerService) LogAffirmationOpen(ctx context.Context, userID, text string, affirmationID int64) (LogResult, error) {
	payload := schema.JSONMap{}
	if strings.TrimSpace(text) != "" {
		payload["affirmation"] = strings.TrimSpace(text)
	}
	if affirmationID > 0 {
		payload["affirmation_id"] = affirmationID
	}
	return s.LogActivity(ctx, userID, KindAffirmationOpen, payload)
}

// LogMoodEntry 记录心情打卡。who5 为 WHO-5 问卷得分（0-25），越界值截断。
func (s *TrackerService) LogMoodEntry(ctx context.Context, userID string, who5 int, mood string) (LogResult, error) {
	if who5 < 0 {
		who5 = 0
	}
	if who5 > 25 {
		who5 = 25
	}
	payload := schema.JSONMap{"who5": int64(who5)}
	if strings.TrimSpace(mood) != "" {
		payload["mood"] = strings.TrimSpace(mood)
	}
	return s.LogActivity(ctx, userID, KindMoodEntry, payload)
}

// LogJournalEntry 记录日记。notes 按问题顺序排列，空白项保位不入库内容。
func (s *TrackerService) LogJournalEntry(ctx context.Context, userID string, notes []string) (LogResult, error) {
	payload := schema.JSONMap{}
	if len(notes) > 0 {
		trimmed := make([]string, len(notes))
		for i, n := range notes {
			trimmed[i] = strings.TrimSpace(n)
		}
		payload["notes"] = trimmed
	}
	return s.LogActivity(ctx, userID, KindJournalEntry, payload)
}

// LogQuestComplete 记录任务完成。xp <= 0 时取类别默认分。
func (s *TrackerService) LogQuestComplete(ctx context.Context, userID string, questID int64, title string, xp int64) (LogResult, error) {
	payload := schema.JSONMap{"quest_id": questID}
	if strings.TrimSpace(title) != "" {
		payload["title"] = strings.TrimSpace(title)
	}
	if xp > 0 {
		payload["xp"] = xp
	}
	return s.LogActivity(ctx, userID, KindQuestComplete, payload)
}

// LogGamePlay 记录一局小游戏
func (s *TrackerService) LogGamePlay(ctx context.Context, userID, game string, xp int64) (LogResult, error) {
	payload := schema.JSONMap{}
	if strings.TrimSpace(game) != "" {
		payload["game"] = strings.TrimSpace(game)
	}
	if xp > 0 {
		payload["xp"] = xp
	}
	return s.LogActivity(ctx, userID, KindGamePlay, payload)
}

// LogExerciseComplete 记录一次放松练习
func (s *TrackerService) LogExerciseComplete(ctx context.Context, userID, exercise string, xp int64) (LogResult, error) {
	payload := schema.JSONMap{}
	if strings.TrimSpace(exercise) != "" {
		payload["exercise"] = strings.TrimSpace(exercise)
	}
	if xp > 0 {
		payload["xp"] = xp
	}
	return s.LogActivity(ctx, userID, KindExerciseComplete, payload)
}
