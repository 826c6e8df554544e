package service_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/saadjs/caffinity-cli/internal/model"
	"github.com/saadjs/caffinity-cli/internal/service"
)

func newEntryService(t *testing.T) (*service.EntryService, *service.SQLEntries) {
	t.Helper()
	d := newTestDB(t)
	repo := service.NewSQLEntries(d)
	return service.NewEntryService(repo, service.NewSQLBeverages(d), nil, quietLogger(), nil), repo
}

func TestLogCatalogDrinkSnapshotsBeverage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newEntryService(t)

	e, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", BeverageID: "energy-2", Consumed: localTime(2024, 1, 1, 14, 30)})
	if err != nil {
		t.Fatalf("log drink: %v", err)
	}
	if e.ID == "" || e.BeverageName != "Monster Energy" || e.CaffeineAmount != 160 || e.ServingSize != "16 oz can" {
		t.Fatalf("unexpected entry %+v", e)
	}

	double, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", BeverageID: "coffee-1", Servings: 2, Consumed: localTime(2024, 1, 1, 8, 0)})
	if err != nil {
		t.Fatalf("log double espresso: %v", err)
	}
	if double.CaffeineAmount != 126 || double.ServingSize != "2 x 1 oz shot" {
		t.Fatalf("unexpected double espresso %+v", double)
	}

	all, err := svc.Snapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if got := service.TotalForDay(all, "2024-01-01"); got != 286 {
		t.Fatalf("expected 286 mg, got %d", got)
	}
	if !all[0].Timestamp.Equal(localTime(2024, 1, 1, 14, 30)) {
		t.Fatalf("expected timestamp to round-trip, got %v", all[0].Timestamp)
	}
}

func TestLogCustomDrinkValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newEntryService(t)

	e, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", Name: "Matcha latte", CaffeineMg: 70, ServingSize: "12 oz", Notes: "oat milk"})
	if err != nil {
		t.Fatalf("log custom: %v", err)
	}
	if e.BeverageID != service.CustomBeverageID || e.Notes != "oat milk" {
		t.Fatalf("unexpected custom entry %+v", e)
	}

	if _, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", CaffeineMg: 10}); err == nil {
		t.Fatalf("expected missing name error")
	}
	if _, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", Name: "x", CaffeineMg: -5}); err == nil {
		t.Fatalf("expected negative caffeine error")
	}
	if _, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", BeverageID: "nope"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected unknown beverage to be not found, got %v", err)
	}
	if _, err := svc.Log(ctx, service.LogDrinkInput{Name: "x", CaffeineMg: 5}); !errors.Is(err, model.ErrStorage) {
		t.Fatalf("expected missing owner to be a storage error, got %v", err)
	}
}

func TestLogServingsBounds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newEntryService(t)

	for _, servings := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", BeverageID: "coffee-1", Servings: servings}); err == nil {
			t.Fatalf("expected servings %v to be rejected", servings)
		}
	}
	_, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", BeverageID: "coffee-1", Servings: 1e300})
	if err == nil || errors.Is(err, model.ErrStorage) || !strings.Contains(err.Error(), "caffeine per entry") {
		t.Fatalf("expected a per-entry caffeine cap error, got %v", err)
	}
	if _, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", Name: "Powder", CaffeineMg: 20000}); err == nil {
		t.Fatalf("expected oversized custom drink to be rejected")
	}
	if got, _ := repo.List(ctx, "u1"); len(got) != 0 {
		t.Fatalf("rejected drinks must not be stored, found %d", len(got))
	}

	one, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", BeverageID: "coffee-1"})
	if err != nil {
		t.Fatalf("log default servings: %v", err)
	}
	if one.CaffeineAmount != 63 {
		t.Fatalf("expected zero servings to mean one, got %dmg", one.CaffeineAmount)
	}
}

func TestEntriesAreScopedByOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newEntryService(t)

	mine, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "alice", BeverageID: "tea-1"})
	if err != nil {
		t.Fatalf("log alice: %v", err)
	}
	if _, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "bob", BeverageID: "tea-2"}); err != nil {
		t.Fatalf("log bob: %v", err)
	}

	bobs, err := repo.List(ctx, "bob")
	if err != nil {
		t.Fatalf("list bob: %v", err)
	}
	if len(bobs) != 1 || bobs[0].OwnerID != "bob" {
		t.Fatalf("expected only bob's entry, got %+v", bobs)
	}
	nobody, err := repo.List(ctx, "carol")
	if err != nil || nobody == nil || len(nobody) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v (%v)", nobody, err)
	}

	err = repo.Delete(ctx, "bob", mine.ID)
	if !errors.Is(err, model.ErrNotFound) || !errors.Is(err, model.ErrStorage) {
		t.Fatalf("expected cross-owner delete to be not found, got %v", err)
	}
	var se *model.StorageError
	if !errors.As(err, &se) || se.Message == "" {
		t.Fatalf("expected StorageError with a message, got %#v", err)
	}
}

func TestDeleteThenRequeryReflectsReducedTotal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newEntryService(t)

	changes := 0
	stop := svc.Notifier().OnChanged(func() { changes++ })
	defer stop()

	day := localTime(2024, 1, 1, 9, 0)
	a, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", BeverageID: "coffee-2", Consumed: day})
	if err != nil {
		t.Fatalf("log a: %v", err)
	}
	if _, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", BeverageID: "energy-2", Consumed: day.Add(3 * time.Hour)}); err != nil {
		t.Fatalf("log b: %v", err)
	}

	before, _ := svc.Snapshot(ctx, "u1")
	if got := service.TotalForDay(before, "2024-01-01"); got != 255 {
		t.Fatalf("expected 255 before delete, got %d", got)
	}
	if err := svc.Delete(ctx, "u1", a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	after, _ := svc.Snapshot(ctx, "u1")
	if got := service.TotalForDay(after, "2024-01-01"); got != 160 {
		t.Fatalf("expected 160 after delete, got %d", got)
	}
	if changes != 3 {
		t.Fatalf("expected 3 change notifications, got %d", changes)
	}
}

type failingRepo struct{}

func (failingRepo) List(context.Context, string) ([]model.CaffeineEntry, error) {
	return nil, model.NewStorageError("list entries", "could not load caffeine entries", errors.New("connection refused"))
}

func (failingRepo) Create(context.Context, model.CaffeineEntry) (string, error) {
	return "", model.NewStorageError("create entry", "could not save the caffeine entry", errors.New("connection refused"))
}

func (failingRepo) Delete(context.Context, string, string) error {
	return model.NewStorageError("delete entry", "could not delete the caffeine entry", errors.New("connection refused"))
}

func TestEntryServiceDoesNotNotifyOnFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := service.NewEntryService(failingRepo{}, nil, nil, quietLogger(), nil)
	notified := false
	svc.Notifier().OnChanged(func() { notified = true })

	if _, err := svc.Log(ctx, service.LogDrinkInput{OwnerID: "u1", Name: "x", CaffeineMg: 10}); !errors.Is(err, model.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if err := svc.Delete(ctx, "u1", "id"); !errors.Is(err, model.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := svc.Snapshot(ctx, "u1"); !errors.Is(err, model.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if notified {
		t.Fatalf("failed mutations must not notify")
	}
}
