package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/saadjs/caffinity-cli/internal/model"
	"github.com/saadjs/caffinity-cli/internal/service"
)

func TestBeverageCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog := service.NewSQLBeverages(newTestDB(t))

	all, err := catalog.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 9 {
		t.Fatalf("expected 9 catalog drinks, got %d", len(all))
	}

	energy, err := catalog.List(ctx, "Energy")
	if err != nil {
		t.Fatalf("list energy: %v", err)
	}
	if len(energy) != 2 || energy[0].Name != "Monster Energy" || energy[1].Name != "Red Bull" {
		t.Fatalf("unexpected energy drinks %+v", energy)
	}
	if _, err := catalog.List(ctx, "juice"); err == nil {
		t.Fatalf("expected unknown category error")
	}

	redBull, err := catalog.Get(ctx, "energy-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if redBull.ServingSizeOz == nil || *redBull.ServingSizeOz != 8.4 || redBull.CaffeineMg != 80 {
		t.Fatalf("unexpected red bull %+v", redBull)
	}
	if got := service.FormatServingSize(redBull, model.UnitMl); got != "248 ml" {
		t.Fatalf("expected 248 ml, got %q", got)
	}
	if _, err := catalog.Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
