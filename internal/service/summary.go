package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mannmitra/engage/internal/schema"
)

// SummaryRow 日摘要中的一行（活动标签 + 详情文本）
type SummaryRow struct {
	Activity string `json:"activity"`
	Details  string `json:"details"`
}

// detailNone 该项当天无记录时的占位标记，保证输出行结构稳定
const detailNone = "—"

// SummaryService 日摘要构建：把某天异构的活动负载还原成固定顺序的展示行。
// 纯读侧，不产生任何写入。
type SummaryService struct {
	activities ActivityRepository
}

// NewSummaryService 创建摘要服务
func NewSummaryService(activities ActivityRepository) *SummaryService {
	return &SummaryService{activities: activities}
}

// WHO5Label 把 WHO-5 得分（0-25）映射为等级文案
func WHO5Label(score int64) string {
	switch {
	case score <= 9:
		return "Low"
	case score <= 14:
		return "Fair"
	case score <= 19:
		return "Good"
	default:
		return "Excellent"
	}
}

// Summarize 构建某用户某天的摘要。按插入顺序扫一遍当天事件维护各类别的
// 最新值累加器，再按固定顺序产出四行：每日一句 / 肯定语 / 日记 / 经验值。
// 缺席的项以占位标记出现而不是省略，输出形状与当天做了什么无关。
func (s *SummaryService) Summarize(ctx context.Context, userID, date string) ([]SummaryRow, error) {
	events, err := s.activities.GetByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	var (
		seenSprout                           bool
		sproutQuote, sproutAuthor, sproutTip string
		seenAffirm                           bool
		affirmText                           string
		who5                                 int64 = -1
		moodName                             string
		diaryNotes                           []string
		xpTotal                              int64
	)

	for _, ev := range events {
		kind := Kind(ev.Kind)
		p := ev.Payload

		if xp, ok := schema.GetInt64(p, "xp"); ok {
			if xp > 0 {
				xpTotal += xp
			}
		} else {
			xpTotal += kind.DefaultPoints()
		}

		switch kind {
		case KindSproutView:
			seenSprout = true
			if q := schema.GetString(p, "quote"); q != "" {
				sproutQuote = q
			}
			if a := schema.GetString(p, "author"); a != "" {
				sproutAuthor = a
			}
			if t := schema.GetString(p, "tip"); t != "" {
				sproutTip = t
			}
		case KindAffirmationOpen:
			seenAffirm = true
			if t := schema.GetString(p, "affirmation"); t != "" {
				affirmText = t
			}
		case KindMoodEntry:
			if v, ok := schema.GetInt64(p, "who5"); ok {
				who5 = v
			}
			if m := schema.GetString(p, "mood"); m != "" {
				moodName = m
			}
		case KindJournalEntry:
			diaryNotes = journalNotes(p, diaryNotes)
		}
	}

	rows := make([]SummaryRow, 0, 4)

	sproutDetails := detailNone
	if seenSprout {
		sproutDetails = "Shown"
		if sproutQuote != "" {
			det := fmt.Sprintf("“%s”", sproutQuote)
			if sproutAuthor != "" {
				det += " — " + sproutAuthor
			}
			if sproutTip != "" {
				det += "\n tip: " + sproutTip
			}
			sproutDetails = det
		}
	}
	rows = append(rows, SummaryRow{Activity: "🌼 Daily Sprout", Details: sproutDetails})

	affirmDetails := detailNone
	if seenAffirm && affirmText != "" {
		affirmDetails = affirmText
	}
	rows = append(rows, SummaryRow{Activity: "🎁 Affirmation", Details: affirmDetails})

	var diaryLines []string
	if who5 >= 0 {
		diaryLines = append(diaryLines, fmt.Sprintf("WHO-5: %d/25 (%s)", who5, WHO5Label(who5)))
	}
	if moodName != "" {
		diaryLines = append(diaryLines, "mood: "+moodName)
	}
	diaryLines = append(diaryLines, diaryNotes...)
	diaryDetails := detailNone
	if len(diaryLines) > 0 {
		diaryDetails = strings.Join(diaryLines, "\n")
	}
	rows = append(rows, SummaryRow{Activity: "📔 Diary", Details: diaryDetails})

	xpDetails := "No XP"
	if xpTotal > 0 {
		xpDetails = fmt.Sprintf("+%d XP", xpTotal)
	}
	rows = append(rows, SummaryRow{Activity: "✨ XP earned", Details: xpDetails})

	return rows, nil
}

// journalNotes 解析日记负载，按优先级依次尝试三代历史形状：
// notes 列表 → q1/q2/q3 分键 → note 自由文本。形状不符时保持已有值，
// 不让一条坏负载毁掉整份摘要。
func journalNotes(p schema.JSONMap, prev []string) []string {
	if raw, ok := p["notes"]; ok {
		var items []string
		switch v := raw.(type) {
		case []string:
			items = v
		case []interface{}:
			items = make([]string, len(v))
			for i, it := range v {
				if s, ok := it.(string); ok {
					items[i] = s
				}
			}
		}
		// 非空列表整体接管：编号按原始位置，空白项跳过
		if len(items) > 0 {
			var out []string
			for i, ans := range items {
				ans = strings.TrimSpace(ans)
				if ans != "" {
					out = append(out, fmt.Sprintf("Q%d: %s", i+1, ans))
				}
			}
			return out
		}
	}

	var qParts []string
	for _, key := range []string{"q1", "q2", "q3"} {
		if v := schema.GetString(p, key); v != "" {
			qParts = append(qParts, strings.ToUpper(key)+": "+v)
		}
	}
	if len(qParts) > 0 {
		return qParts
	}

	if note := schema.GetString(p, "note"); note != "" {
		return []string{note}
	}
	return prev
}
