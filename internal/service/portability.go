package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saadjs/caffinity-cli/internal/model"
)

const exportVersion = 1

type ExportData struct {
	Version     int                   `json:"version"`
	OwnerID     string                `json:"owner_id"`
	ExportedAt  time.Time             `json:"exported_at"`
	Preferences *model.Preferences    `json:"preferences,omitempty"`
	Entries     []model.CaffeineEntry `json:"entries"`
}

type ImportMode string

const (
	ImportModeSkip ImportMode = "skip"
	ImportModeFail ImportMode = "fail"
)

type ImportOptions struct {
	Mode   ImportMode
	DryRun bool
}

type ImportReport struct {
	Inserted  int      `json:"inserted"`
	Skipped   int      `json:"skipped"`
	Conflicts int      `json:"conflicts"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ExportSnapshot collects everything stored for ownerID.
func ExportSnapshot(ctx context.Context, repo EntryRepository, ownerID string, prefs *model.Preferences) (*ExportData, error) {
	entries, err := repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &ExportData{
		Version:     exportVersion,
		OwnerID:     strings.TrimSpace(ownerID),
		ExportedAt:  time.Now().UTC(),
		Preferences: prefs,
		Entries:     entries,
	}, nil
}

// EntryImporter is the storage an import needs: an id lookup across all
// owners and an all-or-nothing batch insert.
type EntryImporter interface {
	OwnersOf(ctx context.Context, ids []string) (map[string]string, error)
	CreateBatch(ctx context.Context, entries []model.CaffeineEntry) ([]string, error)
}

// ImportEntries writes entries for ownerID, whatever owner they were exported
// under. An id ownerID already has is a conflict: skipped, or fatal in fail
// mode. An id held by another owner gets a fresh id. Nothing is written unless
// the whole batch is valid, and the batch is stored in one transaction.
func ImportEntries(ctx context.Context, store EntryImporter, ownerID string, entries []model.CaffeineEntry, opts ImportOptions) (ImportReport, error) {
	report := ImportReport{}
	mode := opts.Mode
	if mode == "" {
		mode = ImportModeSkip
	}
	if mode != ImportModeSkip && mode != ImportModeFail {
		return report, fmt.Errorf("unsupported import mode %q (use skip or fail)", mode)
	}
	ownerID, err := validateOwner(ownerID)
	if err != nil {
		return report, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if id := strings.TrimSpace(e.ID); id != "" {
			ids = append(ids, id)
		}
	}
	owners, err := store.OwnersOf(ctx, ids)
	if err != nil {
		return report, err
	}

	batch := make([]model.CaffeineEntry, 0, len(entries))
	inBatch := make(map[string]bool, len(entries))
	for i, e := range entries {
		if err := validateNonNegativeInt("caffeine", e.CaffeineAmount); err != nil {
			return report, fmt.Errorf("entry %d: %w", i+1, err)
		}
		if e.Timestamp.IsZero() {
			return report, fmt.Errorf("entry %d: timestamp is required", i+1)
		}
		if strings.TrimSpace(e.BeverageName) == "" {
			return report, fmt.Errorf("entry %d: beverage name is required", i+1)
		}

		id := strings.TrimSpace(e.ID)
		holder, taken := owners[id]
		switch {
		case id == "":
			id = uuid.NewString()
		case (taken && holder == ownerID) || inBatch[id]:
			report.Conflicts++
			if mode == ImportModeFail {
				return report, fmt.Errorf("entry %s already exists", id)
			}
			report.Skipped++
			continue
		case taken:
			report.Warnings = append(report.Warnings, fmt.Sprintf("entry %d: id %s belongs to another user, stored under a new id", i+1, id))
			id = uuid.NewString()
		}
		if e.OwnerID != "" && e.OwnerID != ownerID {
			report.Warnings = append(report.Warnings, fmt.Sprintf("entry %d moved from owner %s", i+1, e.OwnerID))
		}
		if orig := strings.TrimSpace(e.ID); orig != "" {
			inBatch[orig] = true
		}
		e.ID = id
		e.OwnerID = ownerID
		batch = append(batch, e)
	}

	if !opts.DryRun && len(batch) > 0 {
		if _, err := store.CreateBatch(ctx, batch); err != nil {
			return report, err
		}
	}
	report.Inserted = len(batch)
	return report, nil
}

var csvHeader = []string{"id", "beverage_id", "beverage_name", "serving_size", "caffeine_mg", "consumed_at", "notes"}

func WriteEntriesCSV(w io.Writer, entries []model.CaffeineEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.ID,
			e.BeverageID,
			e.BeverageName,
			e.ServingSize,
			strconv.Itoa(e.CaffeineAmount),
			e.Timestamp.Format(time.RFC3339Nano),
			e.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadEntriesCSV parses rows written by WriteEntriesCSV. consumed_at takes
// any form ParseTimestamp accepts.
func ReadEntriesCSV(r io.Reader) ([]model.CaffeineEntry, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) <= 1 {
		return nil, fmt.Errorf("csv contains no data rows")
	}
	out := make([]model.CaffeineEntry, 0, len(records)-1)
	for i, row := range records[1:] {
		line := i + 2
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("csv row %d has %d columns, expected %d", line, len(row), len(csvHeader))
		}
		mg, err := strconv.Atoi(strings.TrimSpace(row[4]))
		if err != nil {
			return nil, fmt.Errorf("csv row %d caffeine_mg: %w", line, err)
		}
		ts, err := ParseTimestamp(row[5])
		if err != nil {
			return nil, fmt.Errorf("csv row %d consumed_at: %w", line, err)
		}
		out = append(out, model.CaffeineEntry{
			ID:             strings.TrimSpace(row[0]),
			BeverageID:     strings.TrimSpace(row[1]),
			BeverageName:   row[2],
			ServingSize:    row[3],
			CaffeineAmount: mg,
			Timestamp:      ts,
			Notes:          row[6],
		})
	}
	return out, nil
}
