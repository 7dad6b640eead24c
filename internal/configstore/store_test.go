package configstore

import (
	"context"
	"testing"
	"time"

	"flowday/internal/usage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestClassificationRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, AppConfig{AppID: "app.feed", Name: "Feed", Category: usage.CategoryDistracting}); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, AppConfig{AppID: "app.mail", Name: "Mail", Category: usage.CategoryNecessary}); err != nil {
		t.Fatal(err)
	}

	cfg, ok, err := s.Get(ctx, "app.feed")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || cfg.Category != usage.CategoryDistracting || cfg.Name != "Feed" {
		t.Errorf("get = %+v ok=%v, want the stored distracting config", cfg, ok)
	}

	if _, ok, _ := s.Get(ctx, "app.unknown"); ok {
		t.Error("unlisted app reported as classified")
	}
}

func TestSetReplacesEarlierClassification(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, AppConfig{AppID: "app.feed", Category: usage.CategoryDistracting})
	s.Set(ctx, AppConfig{AppID: "app.feed", Name: "Feed", Category: usage.CategoryNecessary})

	cfg, ok, err := s.Get(ctx, "app.feed")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || cfg.Category != usage.CategoryNecessary {
		t.Errorf("reclassified app = %+v, want necessary (last write wins)", cfg)
	}

	configs, err := s.Configs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 1 {
		t.Errorf("store holds %d configs after reclassify, want 1", len(configs))
	}
}

func TestDeleteReturnsAppToUnlisted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, AppConfig{AppID: "app.feed", Category: usage.CategoryDistracting})
	if err := s.Delete(ctx, "app.feed"); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := s.Get(ctx, "app.feed"); ok {
		t.Error("deleted classification still present")
	}
	// Deleting an absent row is not an error.
	if err := s.Delete(ctx, "app.feed"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestGetAllAndNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, AppConfig{AppID: "app.feed", Name: "Feed", Category: usage.CategoryDistracting})
	s.Set(ctx, AppConfig{AppID: "app.mail", Category: usage.CategoryNecessary})

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if all["app.feed"] != usage.CategoryDistracting || all["app.mail"] != usage.CategoryNecessary {
		t.Errorf("GetAll = %v", all)
	}

	names, err := s.Names(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if names["app.feed"] != "Feed" {
		t.Errorf("names = %v, want Feed for app.feed", names)
	}
	if _, ok := names["app.mail"]; ok {
		t.Error("unnamed app present in names map")
	}
}

func TestSettingsDefaultsAndParsing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if b, _ := s.SettingBool(ctx, SettingDimmerEnabled, true); !b {
		t.Error("unset bool setting should fall back to default")
	}
	s.SetSetting(ctx, SettingDimmerEnabled, "false")
	if b, _ := s.SettingBool(ctx, SettingDimmerEnabled, true); b {
		t.Error("stored false not honored")
	}

	if n, _ := s.SettingInt(ctx, SettingZenTriggerMinutes, 20); n != 20 {
		t.Error("unset int setting should fall back to default")
	}
	s.SetSetting(ctx, SettingZenTriggerMinutes, "45")
	if n, _ := s.SettingInt(ctx, SettingZenTriggerMinutes, 20); n != 45 {
		t.Error("stored int not honored")
	}

	// Garbage values fall back rather than erroring.
	s.SetSetting(ctx, SettingZenTriggerMinutes, "soon")
	if n, _ := s.SettingInt(ctx, SettingZenTriggerMinutes, 20); n != 20 {
		t.Error("unparseable int should fall back to default")
	}
}

func TestDailyScores(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
	}

	for d, score := range map[int]int{10: 72, 11: 85, 12: 64, 13: 91} {
		if err := s.SetDailyScore(ctx, day(d), score); err != nil {
			t.Fatal(err)
		}
	}
	// Recomputing a day replaces the old value.
	s.SetDailyScore(ctx, day(12), 70)

	got, ok, err := s.DailyScore(ctx, day(12))
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != 70 {
		t.Errorf("score for day 12 = %d ok=%v, want 70", got, ok)
	}

	recent, err := s.RecentScores(ctx, day(13), 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		day   string
		score int
	}{
		{"2026-03-11", 85},
		{"2026-03-12", 70},
		{"2026-03-13", 91},
	}
	if len(recent) != len(want) {
		t.Fatalf("recent scores = %d entries, want %d", len(recent), len(want))
	}
	for i, w := range want {
		if recent[i].Day != w.day || recent[i].Score != w.score {
			t.Errorf("recent[%d] = %+v, want %+v", i, recent[i], w)
		}
	}

	// End date bounds the window.
	recent, err = s.RecentScores(ctx, day(11), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[len(recent)-1].Day != "2026-03-11" {
		t.Errorf("bounded recent scores = %+v", recent)
	}
}
