package db

import (
	"context"
	"database/sql"
	"strings"

	"servodash/internal/models"
)

// Repository caches the history batch currently shown in the table. Every
// load replaces the whole batch.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *sql.DB { return r.db }

const measurementColumns = `time_str,date_str,
	servo1_angle,servo2_angle,servo3_angle,
	servo1_angle_percent,servo2_angle_percent,servo3_angle_percent,
	pot1_percent,pot2_percent,pot3_percent,
	pot1_raw,pot2_raw,pot3_raw,
	servo1_pwm,servo2_pwm,servo3_pwm,
	servo1_active,servo2_active,servo3_active,
	button_pressed,led_state,servos_active_count,present_keys`

func (r *Repository) ReplaceMeasurements(ctx context.Context, rows []models.HistoryRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM measurements`); err != nil {
		return err
	}
	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO measurements (seq,`+measurementColumns+`)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, row := range rows {
			c := row.Channels
			_, err := stmt.ExecContext(ctx, i, row.TimeStr, row.DateStr,
				c[0].Angle, c[1].Angle, c[2].Angle,
				c[0].AnglePercent, c[1].AnglePercent, c[2].AnglePercent,
				c[0].PotPercent, c[1].PotPercent, c[2].PotPercent,
				c[0].PotRaw, c[1].PotRaw, c[2].PotRaw,
				c[0].PWM, c[1].PWM, c[2].PWM,
				c[0].Active, c[1].Active, c[2].Active,
				row.ButtonPressed, row.LEDState, row.ActiveCount,
				strings.Join(row.PresentKeys(), ","))
			if err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// ListMeasurements returns the cached batch in fetch order.
func (r *Repository) ListMeasurements(ctx context.Context) ([]models.HistoryRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+measurementColumns+` FROM measurements ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.HistoryRow
	for rows.Next() {
		var (
			s                models.TelemetrySample
			timeStr, dateStr string
			present          string
		)
		c := &s.Channels
		if err := rows.Scan(&timeStr, &dateStr,
			&c[0].Angle, &c[1].Angle, &c[2].Angle,
			&c[0].AnglePercent, &c[1].AnglePercent, &c[2].AnglePercent,
			&c[0].PotPercent, &c[1].PotPercent, &c[2].PotPercent,
			&c[0].PotRaw, &c[1].PotRaw, &c[2].PotRaw,
			&c[0].PWM, &c[1].PWM, &c[2].PWM,
			&c[0].Active, &c[1].Active, &c[2].Active,
			&s.ButtonPressed, &s.LEDState, &s.ActiveCount,
			&present); err != nil {
			return nil, err
		}
		var keys []string
		if present != "" {
			keys = strings.Split(present, ",")
		}
		out = append(out, models.NewHistoryRow(s, timeStr, dateStr, keys))
	}
	return out, rows.Err()
}

func (r *Repository) CountMeasurements(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM measurements`).Scan(&n)
	return n, err
}
