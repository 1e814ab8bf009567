package service

import (
	"context"
	"testing"

	"github.com/mannmitra/engage/internal/repository"
	"github.com/mannmitra/engage/internal/schema"
	"github.com/mannmitra/engage/internal/testutil"
)

func newSummaryFixture(t *testing.T) (*SummaryService, *repository.ActivityRepository) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	activityRepo := repository.NewActivityRepository(db)
	return NewSummaryService(activityRepo), activityRepo
}

func insertEvent(t *testing.T, repo *repository.ActivityRepository, kind, date, fp string, payload schema.JSONMap) {
	t.Helper()
	ev := &schema.ActivityEvent{UserID: "u1", Kind: kind, Date: date, Payload: payload, Fingerprint: fp}
	if inserted, err := repo.Insert(context.Background(), ev); err != nil || !inserted {
		t.Fatalf("insert %s: inserted=%v err=%v", kind, inserted, err)
	}
}

func TestSummarizeEmptyDayHasStableShape(t *testing.T) {
	svc, _ := newSummaryFixture(t)

	rows, err := svc.Summarize(context.Background(), "u1", "2026-08-31")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("summary must always have 4 rows, got %d", len(rows))
	}
	for i, want := range []string{"🌼 Daily Sprout", "🎁 Affirmation", "📔 Diary", "✨ XP earned"} {
		if rows[i].Activity != want {
			t.Fatalf("row %d activity=%q, want %q", i, rows[i].Activity, want)
		}
	}
	for _, r := range rows[:3] {
		if r.Details != "—" {
			t.Fatalf("%s details=%q, want the none marker", r.Activity, r.Details)
		}
	}
	if rows[3].Details != "No XP" {
		t.Fatalf("empty day XP row=%q, want \"No XP\"", rows[3].Details)
	}
}

func TestSummarizeFullDay(t *testing.T) {
	svc, repo := newSummaryFixture(t)

	insertEvent(t, repo, "sprout_view", "2026-08-31", "a", schema.JSONMap{
		"quote": "Be kind", "author": "Anon", "tip": "breathe",
	})
	insertEvent(t, repo, "affirmation_open", "2026-08-31", "b", schema.JSONMap{
		"affirmation": "I am enough",
	})
	insertEvent(t, repo, "mood_entry", "2026-08-31", "c", schema.JSONMap{
		"who5": 16, "mood": "calm",
	})
	insertEvent(t, repo, "journal_entry", "2026-08-31", "d", schema.JSONMap{
		"notes": []string{"slept well", "", "walked"},
	})
	insertEvent(t, repo, "quest_complete", "2026-08-31", "e", schema.JSONMap{
		"quest_id": 1, "xp": 10,
	})

	rows, err := svc.Summarize(context.Background(), "u1", "2026-08-31")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if rows[0].Details != "“Be kind” — Anon\n tip: breathe" {
		t.Fatalf("sprout details=%q", rows[0].Details)
	}
	if rows[1].Details != "I am enough" {
		t.Fatalf("affirmation details=%q", rows[1].Details)
	}
	// 空白回答跳过，但编号保留原始位置
	wantDiary := "WHO-5: 16/25 (Good)\nmood: calm\nQ1: slept well\nQ3: walked"
	if rows[2].Details != wantDiary {
		t.Fatalf("diary details=%q, want %q", rows[2].Details, wantDiary)
	}
	// sprout 1 + affirmation 1 + mood 2 + journal 5 + quest explicit 10
	if rows[3].Details != "+19 XP" {
		t.Fatalf("xp details=%q, want +19 XP", rows[3].Details)
	}
}

func TestSummarizeSproutWithoutQuote(t *testing.T) {
	svc, repo := newSummaryFixture(t)
	insertEvent(t, repo, "sprout_view", "2026-08-31", "a", schema.JSONMap{})

	rows, _ := svc.Summarize(context.Background(), "u1", "2026-08-31")
	if rows[0].Details != "Shown" {
		t.Fatalf("payloadless sprout details=%q, want Shown", rows[0].Details)
	}
}

func TestSummarizeJournalLegacyShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload schema.JSONMap
		want    string
	}{
		{"q-keyed fields", schema.JSONMap{"q1": "one", "q3": "three"}, "Q1: one\nQ3: three"},
		{"single free-text note", schema.JSONMap{"note": "just a note"}, "just a note"},
		{"unrecognized shape degrades to none", schema.JSONMap{"notes": "not-a-list"}, "—"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newSummaryFixture(t)
			insertEvent(t, repo, "journal_entry", "2026-08-31", "a", tc.payload)

			rows, err := svc.Summarize(context.Background(), "u1", "2026-08-31")
			if err != nil {
				t.Fatalf("Summarize: %v", err)
			}
			if rows[2].Details != tc.want {
				t.Fatalf("diary details=%q, want %q", rows[2].Details, tc.want)
			}
		})
	}
}

func TestSummarizeExplicitZeroXPSumsZero(t *testing.T) {
	svc, repo := newSummaryFixture(t)

	// 显式 xp:0 的事件不贡献经验值，也不得回退到类别默认分
	insertEvent(t, repo, "quest_complete", "2026-08-31", "a", schema.JSONMap{
		"quest_id": 1, "xp": 0,
	})

	rows, _ := svc.Summarize(context.Background(), "u1", "2026-08-31")
	if rows[3].Details != "No XP" {
		t.Fatalf("zero-xp day=%q, want No XP", rows[3].Details)
	}
}

func TestSummarizeUnknownKindContributesNoXP(t *testing.T) {
	svc, repo := newSummaryFixture(t)
	insertEvent(t, repo, "song_listen", "2026-08-31", "a", schema.JSONMap{})

	rows, _ := svc.Summarize(context.Background(), "u1", "2026-08-31")
	if rows[3].Details != "No XP" {
		t.Fatalf("unknown kind xp=%q, want No XP", rows[3].Details)
	}
}

func TestWHO5Label(t *testing.T) {
	cases := []struct {
		score int64
		want  string
	}{
		{0, "Low"}, {9, "Low"},
		{10, "Fair"}, {14, "Fair"},
		{15, "Good"}, {19, "Good"},
		{20, "Excellent"}, {25, "Excellent"},
	}
	for _, tc := range cases {
		if got := WHO5Label(tc.score); got != tc.want {
			t.Errorf("WHO5Label(%d)=%q, want %q", tc.score, got, tc.want)
		}
	}
}
