package service

import (
	"context"
	"testing"
	"time"

	"github.com/mannmitra/engage/internal/repository"
	"github.com/mannmitra/engage/internal/schema"
	"github.com/mannmitra/engage/internal/testutil"
)

// newTestEngine wires real repositories over an in-memory database and
// returns a hook to move the engine's notion of "today".
func newTestEngine(t *testing.T) (*TrackerService, *BadgeService, *repository.ActivityRepository, func(time.Time)) {
	t.Helper()
	db := testutil.OpenTestDB(t)

	activityRepo := repository.NewActivityRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)

	badges := NewBadgeService(badgeRepo, pointsRepo, activityRepo)
	if err := badges.SeedCatalog(context.Background()); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	tracker := NewTrackerService(activityRepo, pointsRepo, badges, nil)

	setNow := func(ts time.Time) {
		tracker.now = func() time.Time { return ts }
		badges.now = func() time.Time { return ts }
	}
	setNow(day("2026-08-31"))
	return tracker, badges, activityRepo, setNow
}

func TestLogActivityIdempotentDailyVisit(t *testing.T) {
	tracker, _, activityRepo, _ := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := tracker.LogDailyVisit(ctx, "u1"); err != nil {
			t.Fatalf("visit %d: %v", i, err)
		}
	}

	total, _ := tracker.TotalPoints(ctx, "u1")
	if total != 1 {
		t.Fatalf("N visits on one day must credit default points once, total=%d", total)
	}
	events, _ := activityRepo.GetByDate(ctx, "u1", "2026-08-31")
	if len(events) != 1 {
		t.Fatalf("N visits on one day must store one event, got %d", len(events))
	}
}

func TestLogActivityDistinctQuestsAccumulate(t *testing.T) {
	tracker, _, activityRepo, _ := newTestEngine(t)
	ctx := context.Background()

	res1, err := tracker.LogQuestComplete(ctx, "u1", 1, "breathing", 10)
	if err != nil || !res1.Inserted {
		t.Fatalf("quest 1: inserted=%v err=%v", res1.Inserted, err)
	}
	res2, err := tracker.LogQuestComplete(ctx, "u1", 2, "gratitude", 15)
	if err != nil || !res2.Inserted {
		t.Fatalf("quest 2: inserted=%v err=%v", res2.Inserted, err)
	}

	total, _ := tracker.TotalPoints(ctx, "u1")
	if total != 25 {
		t.Fatalf("two distinct quests must credit both, total=%d want 25", total)
	}
	events, _ := activityRepo.GetByDate(ctx, "u1", "2026-08-31")
	if len(events) != 2 {
		t.Fatalf("two distinct quests must both be stored, got %d rows", len(events))
	}

	// 完全相同的重报不再计分
	res3, err := tracker.LogQuestComplete(ctx, "u1", 2, "gratitude", 15)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res3.Inserted {
		t.Fatal("exact replay must not be inserted")
	}
	total, _ = tracker.TotalPoints(ctx, "u1")
	if total != 25 {
		t.Fatalf("replay must not double-credit, total=%d", total)
	}
}

func TestLogActivityMoodOverwriteSameDay(t *testing.T) {
	tracker, _, activityRepo, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := tracker.LogMoodEntry(ctx, "u1", 10, "meh"); err != nil {
		t.Fatalf("first mood: %v", err)
	}
	if _, err := tracker.LogMoodEntry(ctx, "u1", 18, "better"); err != nil {
		t.Fatalf("second mood: %v", err)
	}

	events, _ := activityRepo.GetByDate(ctx, "u1", "2026-08-31")
	if len(events) != 1 {
		t.Fatalf("same-day mood update must overwrite, got %d rows", len(events))
	}
	if who5, ok := schema.GetInt64(events[0].Payload, "who5"); !ok || who5 != 18 {
		t.Fatalf("latest mood must win, who5=%d ok=%v", who5, ok)
	}
}

func TestLogActivityMonotonicTotal(t *testing.T) {
	tracker, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	var credited int64
	var prev int64
	calls := []func() (LogResult, error){
		func() (LogResult, error) { return tracker.LogDailyVisit(ctx, "u1") },
		func() (LogResult, error) { return tracker.LogDailyVisit(ctx, "u1") }, // duplicate
		func() (LogResult, error) { return tracker.LogJournalEntry(ctx, "u1", []string{"a"}) },
		func() (LogResult, error) { return tracker.LogQuestComplete(ctx, "u1", 1, "q", 10) },
		func() (LogResult, error) { return tracker.LogQuestComplete(ctx, "u1", 1, "q", 10) }, // duplicate
		func() (LogResult, error) { return tracker.LogGamePlay(ctx, "u1", "memory", 0) },
	}
	for i, call := range calls {
		res, err := call()
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		credited += res.PointsCredited

		total, _ := tracker.TotalPoints(ctx, "u1")
		if total < prev {
			t.Fatalf("total must be non-decreasing: %d -> %d", prev, total)
		}
		prev = total
	}

	total, _ := tracker.TotalPoints(ctx, "u1")
	if total != credited {
		t.Fatalf("total=%d must equal sum of credited points %d", total, credited)
	}
	if total != 1+5+10+3 {
		t.Fatalf("total=%d, want 19 (visit 1 + journal 5 + quest 10 + game 3)", total)
	}
}

func TestLogActivityUnknownKindZeroCredit(t *testing.T) {
	tracker, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := tracker.LogActivity(ctx, "u1", Kind("song_listen"), nil)
	if err != nil {
		t.Fatalf("unknown kind must still be accepted: %v", err)
	}
	if !res.Inserted || res.PointsCredited != 0 {
		t.Fatalf("unknown kind: inserted=%v credited=%d, want inserted with 0 credit", res.Inserted, res.PointsCredited)
	}

	// 未知类别仍然计入连续活跃天数
	streak, _ := tracker.CurrentStreak(ctx, "u1")
	if streak != 1 {
		t.Fatalf("streak=%d, want 1", streak)
	}
}

func TestLogActivityExplicitZeroXPCreditsNothing(t *testing.T) {
	tracker, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	// 负载里显式写 xp:0 表示“这件事不计分”，不得回退到类别默认分
	res, err := tracker.LogActivity(ctx, "u1", KindQuestComplete, schema.JSONMap{"quest_id": int64(1), "xp": int64(0)})
	if err != nil {
		t.Fatalf("quest: %v", err)
	}
	if !res.Inserted {
		t.Fatal("zero-xp quest must still be recorded")
	}
	if res.PointsCredited != 0 {
		t.Fatalf("credited=%d, want 0 for explicit xp:0", res.PointsCredited)
	}
	total, _ := tracker.TotalPoints(ctx, "u1")
	if total != 0 {
		t.Fatalf("total=%d, want 0", total)
	}

	// 负值同样不扣分：总分只增不减
	res, err = tracker.LogActivity(ctx, "u1", KindQuestComplete, schema.JSONMap{"quest_id": int64(2), "xp": int64(-5)})
	if err != nil {
		t.Fatalf("negative-xp quest: %v", err)
	}
	if res.PointsCredited != 0 {
		t.Fatalf("credited=%d, want 0 for negative xp", res.PointsCredited)
	}

	// 缺失 xp 键才取默认分
	res, err = tracker.LogActivity(ctx, "u1", KindQuestComplete, schema.JSONMap{"quest_id": int64(3)})
	if err != nil {
		t.Fatalf("default-xp quest: %v", err)
	}
	if res.PointsCredited != 10 {
		t.Fatalf("credited=%d, want quest default 10 when xp absent", res.PointsCredited)
	}
}

func TestLogActivityEmptyUserIsNoop(t *testing.T) {
	tracker, _, _, _ := newTestEngine(t)

	res, err := tracker.LogDailyVisit(context.Background(), "  ")
	if err != nil {
		t.Fatalf("empty user: %v", err)
	}
	if res.Inserted {
		t.Fatal("empty user id must not be recorded")
	}
}

func TestFreshUserJournalScenario(t *testing.T) {
	tracker, badges, _, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := tracker.LogJournalEntry(ctx, "u1", []string{"a", "b", "c"})
	if err != nil || !res.Inserted {
		t.Fatalf("journal: inserted=%v err=%v", res.Inserted, err)
	}

	total, _ := tracker.TotalPoints(ctx, "u1")
	if total != 5 {
		t.Fatalf("total=%d, want journal default 5", total)
	}
	streak, _ := tracker.CurrentStreak(ctx, "u1")
	if streak != 1 {
		t.Fatalf("streak=%d, want 1", streak)
	}
	owned, _, err := badges.ListBadges(ctx, "u1")
	if err != nil || len(owned) != 0 {
		t.Fatalf("fresh user must own no badges, got %d (err=%v)", len(owned), err)
	}
}

func TestSevenDayVisitStreakAwardsBadge(t *testing.T) {
	tracker, badges, _, setNow := newTestEngine(t)
	ctx := context.Background()

	start := day("2026-08-01")
	for i := 0; i < 7; i++ {
		setNow(start.AddDate(0, 0, i))
		if _, err := tracker.LogDailyVisit(ctx, "u1"); err != nil {
			t.Fatalf("day %d: %v", i+1, err)
		}
	}

	streak, _ := tracker.CurrentStreak(ctx, "u1")
	if streak != 7 {
		t.Fatalf("streak=%d, want 7", streak)
	}

	owned, _, err := badges.ListBadges(ctx, "u1")
	if err != nil {
		t.Fatalf("ListBadges: %v", err)
	}
	found := false
	for _, b := range owned {
		if b.Name == "7-Day Streak" {
			found = true
			if b.AwardedOn != "2026-08-07" {
				t.Fatalf("awarded_on=%s, want day 7 (2026-08-07)", b.AwardedOn)
			}
		}
	}
	if !found {
		t.Fatal("7-Day Streak badge must be owned after seven consecutive visits")
	}
}

func TestBadgeAwardedWhenThresholdCrossed(t *testing.T) {
	tracker, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := tracker.LogQuestComplete(ctx, "u1", 1, "big quest", 95); err != nil {
		t.Fatalf("first quest: %v", err)
	}

	// 95 → 105：同一次调用里跨过 100 XP 阈值
	res, err := tracker.LogQuestComplete(ctx, "u1", 2, "small quest", 10)
	if err != nil {
		t.Fatalf("second quest: %v", err)
	}
	if res.NewTotal != 105 {
		t.Fatalf("total=%d, want 105", res.NewTotal)
	}
	found := false
	for _, b := range res.NewBadges {
		if b.Name == "Level 1: 100 XP" {
			found = true
		}
	}
	if !found {
		t.Fatalf("crossing call must award the 100 XP badge, got %v", res.NewBadges)
	}
}

func TestBadgeNeverRevoked(t *testing.T) {
	tracker, badges, _, setNow := newTestEngine(t)
	ctx := context.Background()

	start := day("2026-08-01")
	for i := 0; i < 7; i++ {
		setNow(start.AddDate(0, 0, i))
		if _, err := tracker.LogDailyVisit(ctx, "u1"); err != nil {
			t.Fatalf("day %d: %v", i+1, err)
		}
	}

	// 跳过 10 天后连续性断裂，徽章仍然保留
	setNow(start.AddDate(0, 0, 17))
	streak, _ := tracker.CurrentStreak(ctx, "u1")
	if streak != 0 {
		t.Fatalf("streak=%d, want 0 after a gap", streak)
	}
	owned, _, _ := badges.ListBadges(ctx, "u1")
	found := false
	for _, b := range owned {
		if b.Name == "7-Day Streak" {
			found = true
		}
	}
	if !found {
		t.Fatal("streak badge must survive a broken streak")
	}
}

func TestRetentionPrunesEventsNotDerivedFacts(t *testing.T) {
	tracker, _, activityRepo, setNow := newTestEngine(t)
	ctx := context.Background()

	oldDay := day("2026-07-01")
	setNow(oldDay)
	if _, err := tracker.LogJournalEntry(ctx, "u1", []string{"old entry"}); err != nil {
		t.Fatalf("old journal: %v", err)
	}

	// 31 天后的一次写入触发顺手清理
	setNow(oldDay.AddDate(0, 0, 31))
	if _, err := tracker.LogDailyVisit(ctx, "u1"); err != nil {
		t.Fatalf("visit: %v", err)
	}

	recent, err := tracker.RecentActiveDates(ctx, "u1", 30)
	if err != nil {
		t.Fatalf("RecentActiveDates: %v", err)
	}
	for _, d := range recent {
		if d == "2026-07-01" {
			t.Fatal("pruned date must not appear in the recent window")
		}
	}
	events, _ := activityRepo.GetByDate(ctx, "u1", "2026-07-01")
	if len(events) != 0 {
		t.Fatalf("old events must be pruned, got %d rows", len(events))
	}

	// 积分是永久化的派生事实，不随日志清理回退
	total, _ := tracker.TotalPoints(ctx, "u1")
	if total != 5+1 {
		t.Fatalf("total=%d, want 6 (journal 5 + visit 1)", total)
	}
}

func TestAppendOnlyModeSkipsOverwrite(t *testing.T) {
	db := testutil.OpenTestDB(t)
	activityRepo := repository.NewActivityRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	badges := NewBadgeService(badgeRepo, pointsRepo, activityRepo)
	tracker := NewTrackerService(activityRepo, pointsRepo, badges, &TrackerConfig{AppendOnly: true})
	tracker.now = func() time.Time { return day("2026-08-31") }
	badges.now = tracker.now
	ctx := context.Background()

	if _, err := tracker.LogMoodEntry(ctx, "u1", 10, ""); err != nil {
		t.Fatalf("first mood: %v", err)
	}
	if _, err := tracker.LogMoodEntry(ctx, "u1", 18, ""); err != nil {
		t.Fatalf("second mood: %v", err)
	}

	events, _ := activityRepo.GetByDate(ctx, "u1", "2026-08-31")
	if len(events) != 2 {
		t.Fatalf("append-only mode must keep both rows, got %d", len(events))
	}
}
