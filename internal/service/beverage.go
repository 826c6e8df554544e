package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/saadjs/caffinity-cli/internal/db"
	"github.com/saadjs/caffinity-cli/internal/model"
)

// BeverageCatalog is the read-only list of known drinks.
type BeverageCatalog interface {
	List(ctx context.Context, category string) ([]model.Beverage, error)
	Get(ctx context.Context, id string) (model.Beverage, error)
}

type SQLBeverages struct {
	DB *db.DB
}

func NewSQLBeverages(d *db.DB) *SQLBeverages {
	return &SQLBeverages{DB: d}
}

func (s *SQLBeverages) List(ctx context.Context, category string) ([]model.Beverage, error) {
	query := `SELECT id, name, category, caffeine_mg, serving_size, serving_size_oz FROM beverages`
	args := make([]any, 0, 1)
	if c := normalizeName(category); c != "" {
		if !validCategory(c) {
			return nil, fmt.Errorf("unknown beverage category %q", category)
		}
		query += ` WHERE category = ?`
		args = append(args, c)
	}
	query += ` ORDER BY category ASC, name ASC`

	rows, err := s.DB.QueryContext(ctx, s.DB.Rebind(query), args...)
	if err != nil {
		return nil, model.NewStorageError("list beverages", "could not load the beverage catalog", err)
	}
	defer rows.Close()

	out := make([]model.Beverage, 0)
	for rows.Next() {
		b, err := scanBeverage(rows)
		if err != nil {
			return nil, model.NewStorageError("list beverages", "could not read a beverage row", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewStorageError("list beverages", "could not load the beverage catalog", err)
	}
	return out, nil
}

func (s *SQLBeverages) Get(ctx context.Context, id string) (model.Beverage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Beverage{}, fmt.Errorf("beverage id is required")
	}
	row := s.DB.QueryRowContext(ctx, s.DB.Rebind(`
SELECT id, name, category, caffeine_mg, serving_size, serving_size_oz
FROM beverages WHERE id = ?`), id)
	b, err := scanBeverage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Beverage{}, model.NewStorageError("get beverage", fmt.Sprintf("beverage %q not found", id), model.ErrNotFound)
	}
	if err != nil {
		return model.Beverage{}, model.NewStorageError("get beverage", fmt.Sprintf("could not load beverage %q", id), err)
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBeverage(r rowScanner) (model.Beverage, error) {
	var b model.Beverage
	var category string
	var oz sql.NullFloat64
	if err := r.Scan(&b.ID, &b.Name, &category, &b.CaffeineMg, &b.ServingSize, &oz); err != nil {
		return model.Beverage{}, err
	}
	b.Category = model.BeverageCategory(category)
	if oz.Valid {
		v := oz.Float64
		b.ServingSizeOz = &v
	}
	return b, nil
}

func validCategory(c string) bool {
	switch model.BeverageCategory(c) {
	case model.CategoryCoffee, model.CategoryTea, model.CategoryEnergy, model.CategorySoda, model.CategoryOther:
		return true
	}
	return false
}
