package db

import (
	"context"
	"encoding/json"
	"testing"

	"servodash/internal/models"
)

func TestReplaceMeasurementsKeepsOnlyLatestBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceMeasurements(ctx, decodeRows(t, `[
		{"time_str":"10:00:00","servo1_angle":1},
		{"time_str":"10:00:01","servo1_angle":2},
		{"time_str":"10:00:02","servo1_angle":3}]`)); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if err := repo.ReplaceMeasurements(ctx, decodeRows(t, `[
		{"time_str":"11:00:01","date_str":"2025-06-01","servo2_angle":45.5,"pot3_percent":12.3,"button_pressed":1,"led_state":0,"servos_active_count":2},
		{"time_str":"11:00:00","servo3_active":1}]`)); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	n, err := repo.CountMeasurements(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	rows, err := repo.ListMeasurements(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if rows[0].TimeStr != "11:00:01" || rows[1].TimeStr != "11:00:00" {
		t.Fatalf("rows out of fetch order: %q, %q", rows[0].TimeStr, rows[1].TimeStr)
	}
	first := rows[0]
	if first.DateStr != "2025-06-01" || first.Channels[1].Angle != 45.5 || first.Channels[2].PotPercent != 12.3 {
		t.Fatalf("first row = %+v", first)
	}
	if !first.ButtonPressed || first.LEDState || first.ActiveCount != 2 {
		t.Fatalf("first row flags = %+v", first)
	}
	if first.Channels[0].PWM != models.DefaultPWM {
		t.Fatalf("pwm = %d, want default", first.Channels[0].PWM)
	}
	if !first.Has("servo2_angle") || first.Has("servo1_angle") {
		t.Fatal("presence did not survive the cache")
	}
	if !rows[1].Channels[2].Active {
		t.Fatal("active flag lost")
	}
}

func TestReplaceWithEmptyBatchClears(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.ReplaceMeasurements(ctx, decodeRows(t, `[{"time_str":"x"}]`)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := repo.ReplaceMeasurements(ctx, nil); err != nil {
		t.Fatalf("replace empty: %v", err)
	}
	rows, err := repo.ListMeasurements(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
}

func TestMemoryDatabasesAreIsolated(t *testing.T) {
	a := newTestRepo(t)
	b := newTestRepo(t)
	ctx := context.Background()
	if err := a.ReplaceMeasurements(ctx, decodeRows(t, `[{"time_str":"x"}]`)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	n, err := b.CountMeasurements(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("second cache sees %d rows from the first", n)
	}
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	sqldb, err := OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	if err := Migrate(sqldb); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return NewRepository(sqldb)
}

func decodeRows(t *testing.T, body string) []models.HistoryRow {
	t.Helper()
	var rows []models.HistoryRow
	if err := json.Unmarshal([]byte(body), &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	return rows
}
