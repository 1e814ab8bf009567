package service

// Kind 活动类别（封闭枚举）。未知类别不拒绝：仍入库、仍计入连续天数，
// 只是默认记 0 分（向前兼容旧客户端上报的新类别）。
type Kind string

const (
	KindSproutView       Kind = "sprout_view"       // 每日一句（名言/小贴士）
	KindAffirmationOpen  Kind = "affirmation_open"  // 打开肯定语
	KindQuestComplete    Kind = "quest_complete"    // 完成任务
	KindJournalEntry     Kind = "journal_entry"     // 日记
	KindMoodEntry        Kind = "mood_entry"        // 心情打卡（WHO-5）
	KindGamePlay         Kind = "game_play"         // 小游戏
	KindExerciseComplete Kind = "exercise_complete" // 放松练习
	KindDailyVisit       Kind = "daily_visit"       // 每日访问
)

// dateLayout 活动日期的统一格式（用户本地日）
const dateLayout = "2006-01-02"

// defaultPoints 各类别的默认经验值，负载里显式带 xp 时以负载为准
var defaultPoints = map[Kind]int64{
	KindSproutView:       1,
	KindAffirmationOpen:  1,
	KindQuestComplete:    10,
	KindJournalEntry:     5,
	KindMoodEntry:        2,
	KindGamePlay:         3,
	KindExerciseComplete: 6,
	KindDailyVisit:       1,
}

// DedupePolicy 同日去重策略
type DedupePolicy int

const (
	// DedupeOncePerDay 指纹恒定（忽略负载内容）：每天至多一条记录、至多记一次分
	DedupeOncePerDay DedupePolicy = iota
	// DedupeLatestWins 同日重报时新值覆盖旧值（同事务删旧插新），指纹完全相同才算重复
	DedupeLatestWins
	// DedupeAccumulate 同日允许多条语义不同的记录并存，仅拒绝指纹完全相同的重报
	DedupeAccumulate
)

// oncePerDay 每天只记一次的类别集合
var oncePerDay = map[Kind]struct{}{
	KindSproutView:      {},
	KindAffirmationOpen: {},
	KindJournalEntry:    {},
	KindDailyVisit:      {},
}

// Policy 返回该类别的同日去重策略。心情打卡取“当天最后一次为准”，
// 任务/游戏/练习允许同日多次不同内容，其余类别每日一次。
func (k Kind) Policy() DedupePolicy {
	if _, ok := oncePerDay[k]; ok {
		return DedupeOncePerDay
	}
	if k == KindMoodEntry {
		return DedupeLatestWins
	}
	return DedupeAccumulate
}

// DefaultPoints 返回该类别的默认经验值，未知类别为 0
func (k Kind) DefaultPoints() int64 {
	return defaultPoints[k]
}

// Known 判断是否为已知类别
func (k Kind) Known() bool {
	_, ok := defaultPoints[k]
	return ok
}
