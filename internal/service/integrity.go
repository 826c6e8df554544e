package service

import (
	"context"
	"fmt"
	"time"

	"github.com/saadjs/caffinity-cli/internal/db"
)

type DoctorReport struct {
	OrphanEntries     int `json:"orphan_entries"`
	InvalidTimestamps int `json:"invalid_timestamps"`
	FixedOrphans      int `json:"fixed_orphans,omitempty"`
}

func (r DoctorReport) Healthy() bool {
	return r.OrphanEntries == 0 && r.InvalidTimestamps == 0
}

// RunDoctor looks for entries pointing at beverages that are not in the
// catalog and entries whose timestamp no longer parses. With fix, orphaned
// entries are relabelled as custom drinks; their snapshot fields are kept.
func RunDoctor(ctx context.Context, d *db.DB, fix bool) (DoctorReport, error) {
	report := DoctorReport{}
	if err := d.QueryRowContext(ctx, d.Rebind(`
SELECT COUNT(1) FROM entries e
LEFT JOIN beverages b ON b.id = e.beverage_id
WHERE b.id IS NULL AND e.beverage_id <> ?`), CustomBeverageID).Scan(&report.OrphanEntries); err != nil {
		return report, fmt.Errorf("doctor orphan check: %w", err)
	}

	rows, err := d.QueryContext(ctx, `SELECT consumed_at FROM entries`)
	if err != nil {
		return report, fmt.Errorf("doctor timestamp query: %w", err)
	}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			_ = rows.Close()
			return report, fmt.Errorf("doctor timestamp scan: %w", err)
		}
		if _, err := time.Parse(time.RFC3339Nano, raw); err != nil {
			report.InvalidTimestamps++
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return report, fmt.Errorf("doctor timestamp iterate: %w", err)
	}
	_ = rows.Close()

	if fix && report.OrphanEntries > 0 {
		res, err := d.ExecContext(ctx, d.Rebind(`
UPDATE entries SET beverage_id = ?
WHERE beverage_id <> ? AND beverage_id NOT IN (SELECT id FROM beverages)`), CustomBeverageID, CustomBeverageID)
		if err != nil {
			return report, fmt.Errorf("doctor fix orphans: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return report, fmt.Errorf("doctor fix orphans: %w", err)
		}
		report.FixedOrphans = int(n)
	}
	return report, nil
}
