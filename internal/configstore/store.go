// Package configstore persists user classifications, intervention
// settings, and daily scores in a local SQLite database.
package configstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"flowday/internal/scoring"
	"flowday/internal/usage"
)

// AppConfig is one user-made classification: this app is necessary or
// distracting. Apps with no row are unlisted.
type AppConfig struct {
	AppID    string
	Name     string
	Category usage.AppCategory
}

// Store wraps the SQLite database connection.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the config database in the state directory.
func Open(statePath string) (*Store, error) {
	dbPath := filepath.Join(statePath, "flowday.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS app_configs (
		package_name TEXT PRIMARY KEY,
		app_name     TEXT NOT NULL DEFAULT '',
		type         TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS daily_scores (
		day   TEXT PRIMARY KEY,
		score INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Set records a classification, replacing any earlier one for the
// same app.
func (s *Store) Set(ctx context.Context, cfg AppConfig) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_configs (package_name, app_name, type)
		VALUES (?, ?, ?)
		ON CONFLICT(package_name) DO UPDATE SET
			app_name = excluded.app_name,
			type = excluded.type`,
		cfg.AppID, cfg.Name, string(cfg.Category))
	return err
}

// Get returns one app's classification, or false if it is unlisted.
func (s *Store) Get(ctx context.Context, appID string) (AppConfig, bool, error) {
	var cfg AppConfig
	var cat string
	err := s.db.QueryRowContext(ctx,
		"SELECT package_name, app_name, type FROM app_configs WHERE package_name = ?",
		appID).Scan(&cfg.AppID, &cfg.Name, &cat)
	if err == sql.ErrNoRows {
		return AppConfig{}, false, nil
	}
	if err != nil {
		return AppConfig{}, false, err
	}
	cfg.Category = usage.AppCategory(cat)
	return cfg, true, nil
}

// Delete removes a classification, returning the app to unlisted.
func (s *Store) Delete(ctx context.Context, appID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM app_configs WHERE package_name = ?", appID)
	return err
}

// Configs returns every classification, ordered by app identifier.
func (s *Store) Configs(ctx context.Context) ([]AppConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT package_name, app_name, type FROM app_configs ORDER BY package_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AppConfig
	for rows.Next() {
		var cfg AppConfig
		var cat string
		if err := rows.Scan(&cfg.AppID, &cfg.Name, &cat); err != nil {
			return nil, err
		}
		cfg.Category = usage.AppCategory(cat)
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// GetAll returns the classification map the timeline and watchdog
// consume.
func (s *Store) GetAll(ctx context.Context) (map[string]usage.AppCategory, error) {
	configs, err := s.Configs(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]usage.AppCategory, len(configs))
	for _, cfg := range configs {
		m[cfg.AppID] = cfg.Category
	}
	return m, nil
}

// Names returns the stored display names, keyed by app identifier.
// Apps the user never named are absent.
func (s *Store) Names(ctx context.Context) (map[string]string, error) {
	configs, err := s.Configs(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(configs))
	for _, cfg := range configs {
		if cfg.Name != "" {
			m[cfg.AppID] = cfg.Name
		}
	}
	return m, nil
}

// Setting keys used by the daemon. Interventions read these each tick
// so a change takes effect without a restart.
const (
	SettingDimmerEnabled      = "dimmer_enabled"
	SettingDimmerTriggerHour  = "dimmer_trigger_hour"
	SettingDimmerTriggerMin   = "dimmer_trigger_minute"
	SettingZenEnabled         = "zen_mode_enabled"
	SettingZenTriggerMinutes  = "zen_mode_trigger_duration"
	SettingMarqueeEnabled     = "danmaku_enabled"
	SettingMarqueeTriggerMins = "danmaku_trigger_duration"
)

// SetSetting stores one key/value setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// Setting returns a setting's value, or the fallback if unset.
func (s *Store) Setting(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SettingBool returns a boolean setting, or the fallback if unset or
// unparseable.
func (s *Store) SettingBool(ctx context.Context, key string, fallback bool) (bool, error) {
	value, err := s.Setting(ctx, key, strconv.FormatBool(fallback))
	if err != nil {
		return fallback, err
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, nil
	}
	return b, nil
}

// SettingInt returns an integer setting, or the fallback if unset or
// unparseable.
func (s *Store) SettingInt(ctx context.Context, key string, fallback int) (int, error) {
	value, err := s.Setting(ctx, key, strconv.Itoa(fallback))
	if err != nil {
		return fallback, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, nil
	}
	return n, nil
}

// SetDailyScore records a day's balance score, replacing any earlier
// value for the same day.
func (s *Store) SetDailyScore(ctx context.Context, day time.Time, score int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_scores (day, score) VALUES (?, ?)
		ON CONFLICT(day) DO UPDATE SET score = excluded.score`,
		day.Format("2006-01-02"), score)
	return err
}

// DailyScore returns a day's stored score, or false if none was
// recorded.
func (s *Store) DailyScore(ctx context.Context, day time.Time) (int, bool, error) {
	var score int
	err := s.db.QueryRowContext(ctx,
		"SELECT score FROM daily_scores WHERE day = ?",
		day.Format("2006-01-02")).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

// RecentScores returns up to n stored scores ending at the given day,
// oldest first.
func (s *Store) RecentScores(ctx context.Context, end time.Time, n int) ([]scoring.DayScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, score FROM daily_scores
		WHERE day <= ? ORDER BY day DESC LIMIT ?`,
		end.Format("2006-01-02"), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scoring.DayScore
	for rows.Next() {
		var ds scoring.DayScore
		if err := rows.Scan(&ds.Day, &ds.Score); err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse to oldest-first for trend rendering.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
