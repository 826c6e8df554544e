package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saadjs/caffinity-cli/internal/db"
	"github.com/saadjs/caffinity-cli/internal/metrics"
	"github.com/saadjs/caffinity-cli/internal/model"
)

const CustomBeverageID = "custom"

// consumed_at is stored in UTC with fixed-width nanoseconds so text order
// matches time order.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// EntryRepository stores caffeine entries. Every call is scoped to one owner
// and every failure is a *model.StorageError.
type EntryRepository interface {
	List(ctx context.Context, ownerID string) ([]model.CaffeineEntry, error)
	Create(ctx context.Context, e model.CaffeineEntry) (string, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type SQLEntries struct {
	DB *db.DB
}

func NewSQLEntries(d *db.DB) *SQLEntries {
	return &SQLEntries{DB: d}
}

func (s *SQLEntries) List(ctx context.Context, ownerID string) ([]model.CaffeineEntry, error) {
	ownerID, err := validateOwner(ownerID)
	if err != nil {
		return nil, model.NewStorageError("list entries", err.Error(), nil)
	}
	rows, err := s.DB.QueryContext(ctx, s.DB.Rebind(`
SELECT id, owner_id, beverage_id, beverage_name, serving_size, caffeine_mg, consumed_at, notes
FROM entries
WHERE owner_id = ?
ORDER BY consumed_at DESC, created_at DESC
`), ownerID)
	if err != nil {
		return nil, model.NewStorageError("list entries", "could not load caffeine entries", err)
	}
	defer rows.Close()

	out := make([]model.CaffeineEntry, 0)
	for rows.Next() {
		var e model.CaffeineEntry
		var consumedAtRaw string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.BeverageID, &e.BeverageName, &e.ServingSize, &e.CaffeineAmount, &consumedAtRaw, &e.Notes); err != nil {
			return nil, model.NewStorageError("list entries", "could not read a caffeine entry", err)
		}
		consumedAt, err := time.Parse(time.RFC3339Nano, consumedAtRaw)
		if err != nil {
			return nil, model.NewStorageError("list entries", fmt.Sprintf("entry %s has an unreadable timestamp", e.ID), err)
		}
		e.Timestamp = consumedAt
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewStorageError("list entries", "could not load caffeine entries", err)
	}
	return out, nil
}

func (s *SQLEntries) Create(ctx context.Context, e model.CaffeineEntry) (string, error) {
	return s.insert(ctx, s.DB, e)
}

// CreateBatch inserts entries in one transaction. Either every entry is
// stored or none is.
func (s *SQLEntries) CreateBatch(ctx context.Context, entries []model.CaffeineEntry) ([]string, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.NewStorageError("create entries", "could not start the import", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		id, err := s.insert(ctx, tx, e)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, model.NewStorageError("create entries", "could not commit the import", err)
	}
	return ids, nil
}

// OwnersOf maps each of ids that is already stored to its owner, whoever
// that is.
func (s *SQLEntries) OwnersOf(ctx context.Context, ids []string) (map[string]string, error) {
	const chunk = 200
	out := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += chunk {
		end := min(start+chunk, len(ids))
		part := ids[start:end]
		args := make([]any, len(part))
		for i, id := range part {
			args[i] = id
		}
		query := `SELECT id, owner_id FROM entries WHERE id IN (?` + strings.Repeat(`, ?`, len(part)-1) + `)`
		rows, err := s.DB.QueryContext(ctx, s.DB.Rebind(query), args...)
		if err != nil {
			return nil, model.NewStorageError("lookup entries", "could not check existing entry ids", err)
		}
		for rows.Next() {
			var id, owner string
			if err := rows.Scan(&id, &owner); err != nil {
				_ = rows.Close()
				return nil, model.NewStorageError("lookup entries", "could not read an entry id", err)
			}
			out[id] = owner
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, model.NewStorageError("lookup entries", "could not check existing entry ids", err)
		}
	}
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLEntries) insert(ctx context.Context, x execer, e model.CaffeineEntry) (string, error) {
	ownerID, err := validateOwner(e.OwnerID)
	if err != nil {
		return "", model.NewStorageError("create entry", err.Error(), nil)
	}
	if err := validateNonNegativeInt("caffeine amount", e.CaffeineAmount); err != nil {
		return "", model.NewStorageError("create entry", err.Error(), nil)
	}
	e.BeverageName = strings.TrimSpace(e.BeverageName)
	if e.BeverageName == "" {
		return "", model.NewStorageError("create entry", "beverage name is required", nil)
	}
	if e.Timestamp.IsZero() {
		return "", model.NewStorageError("create entry", "timestamp is required", nil)
	}
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	if strings.TrimSpace(e.BeverageID) == "" {
		e.BeverageID = CustomBeverageID
	}

	_, err = x.ExecContext(ctx, s.DB.Rebind(`
INSERT INTO entries(id, owner_id, beverage_id, beverage_name, serving_size, caffeine_mg, consumed_at, notes)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`), e.ID, ownerID, e.BeverageID, e.BeverageName, strings.TrimSpace(e.ServingSize), e.CaffeineAmount,
		e.Timestamp.UTC().Format(storedTimeLayout), strings.TrimSpace(e.Notes))
	if err != nil {
		return "", model.NewStorageError("create entry", "could not save the caffeine entry", err)
	}
	return e.ID, nil
}

// Delete removes one of ownerID's entries. Another owner's entry is reported
// as not found.
func (s *SQLEntries) Delete(ctx context.Context, ownerID, id string) error {
	ownerID, err := validateOwner(ownerID)
	if err != nil {
		return model.NewStorageError("delete entry", err.Error(), nil)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return model.NewStorageError("delete entry", "entry id is required", nil)
	}
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM entries WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return model.NewStorageError("delete entry", "could not delete the caffeine entry", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.NewStorageError("delete entry", "could not confirm the delete", err)
	}
	if affected == 0 {
		return model.NewStorageError("delete entry", fmt.Sprintf("entry %s not found", id), model.ErrNotFound)
	}
	return nil
}

// maxEntryCaffeineMg bounds a single entry, well past any real drink.
const maxEntryCaffeineMg = 10000

// LogDrinkInput describes one drink. Either BeverageID names a catalog item
// or Name and CaffeineMg describe a custom drink. Zero Servings means one.
type LogDrinkInput struct {
	OwnerID     string
	BeverageID  string
	Name        string
	CaffeineMg  int
	ServingSize string
	Servings    float64
	Consumed    time.Time
	Notes       string
}

// EntryService is the write path for entries: it resolves catalog drinks,
// persists through the repository, and tells subscribers when data changed.
type EntryService struct {
	repo     EntryRepository
	catalog  BeverageCatalog
	notifier *ChangeNotifier
	logger   *slog.Logger
	metrics  metrics.MetricsCollector
}

func NewEntryService(repo EntryRepository, catalog BeverageCatalog, notifier *ChangeNotifier, logger *slog.Logger, collector metrics.MetricsCollector) *EntryService {
	if notifier == nil {
		notifier = &ChangeNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &EntryService{repo: repo, catalog: catalog, notifier: notifier, logger: logger, metrics: collector}
}

func (s *EntryService) Notifier() *ChangeNotifier {
	return s.notifier
}

func (s *EntryService) Log(ctx context.Context, in LogDrinkInput) (model.CaffeineEntry, error) {
	servings := in.Servings
	if servings == 0 {
		servings = 1
	}
	if servings < 0 || math.IsNaN(servings) || math.IsInf(servings, 0) {
		return model.CaffeineEntry{}, fmt.Errorf("servings must be > 0")
	}
	consumed := in.Consumed
	if consumed.IsZero() {
		consumed = time.Now()
	}

	entry := model.CaffeineEntry{
		OwnerID:   in.OwnerID,
		Timestamp: consumed,
		Notes:     in.Notes,
	}
	if id := strings.TrimSpace(in.BeverageID); id != "" && id != CustomBeverageID {
		if s.catalog == nil {
			return model.CaffeineEntry{}, fmt.Errorf("no beverage catalog configured")
		}
		b, err := s.catalog.Get(ctx, id)
		if err != nil {
			return model.CaffeineEntry{}, err
		}
		entry.BeverageID = b.ID
		entry.BeverageName = b.Name
		entry.ServingSize = b.ServingSize
		mg, err := entryCaffeine(b.CaffeineMg, servings)
		if err != nil {
			return model.CaffeineEntry{}, err
		}
		entry.CaffeineAmount = mg
	} else {
		if err := validateNonNegativeInt("caffeine", in.CaffeineMg); err != nil {
			return model.CaffeineEntry{}, err
		}
		entry.BeverageID = CustomBeverageID
		entry.BeverageName = strings.TrimSpace(in.Name)
		if entry.BeverageName == "" {
			return model.CaffeineEntry{}, fmt.Errorf("custom drink name is required")
		}
		entry.ServingSize = in.ServingSize
		mg, err := entryCaffeine(in.CaffeineMg, servings)
		if err != nil {
			return model.CaffeineEntry{}, err
		}
		entry.CaffeineAmount = mg
	}
	if strings.TrimSpace(in.ServingSize) != "" {
		entry.ServingSize = strings.TrimSpace(in.ServingSize)
	}
	if servings != 1 {
		entry.ServingSize = strings.TrimSpace(strconv.FormatFloat(servings, 'f', -1, 64) + " x " + entry.ServingSize)
	}

	id, err := s.repo.Create(ctx, entry)
	if err != nil {
		s.metrics.RecordStorageError("create")
		return model.CaffeineEntry{}, err
	}
	entry.ID = id
	entry.OwnerID = strings.TrimSpace(entry.OwnerID)
	s.metrics.RecordEntryMutation("create")
	s.logger.Debug("entry created", "id", id, "owner", entry.OwnerID, "caffeine_mg", entry.CaffeineAmount)
	s.notifier.NotifyChanged()
	return entry, nil
}

func entryCaffeine(perServing int, servings float64) (int, error) {
	total := math.Round(float64(perServing) * servings)
	if total > maxEntryCaffeineMg {
		return 0, fmt.Errorf("caffeine per entry must be <= %dmg, got %.0fmg", maxEntryCaffeineMg, total)
	}
	return int(total), nil
}

func (s *EntryService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		s.metrics.RecordStorageError("delete")
		return err
	}
	s.metrics.RecordEntryMutation("delete")
	s.logger.Debug("entry deleted", "id", id, "owner", ownerID)
	s.notifier.NotifyChanged()
	return nil
}

// Snapshot returns every entry the owner has, in storage order.
func (s *EntryService) Snapshot(ctx context.Context, ownerID string) ([]model.CaffeineEntry, error) {
	entries, err := s.repo.List(ctx, ownerID)
	if err != nil {
		s.metrics.RecordStorageError("list")
		return nil, err
	}
	return entries, nil
}
