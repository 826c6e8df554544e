package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/saadjs/caffinity-cli/internal/model"
	"github.com/saadjs/caffinity-cli/internal/service"
)

func seedEntries(t *testing.T, repo *service.SQLEntries, owner string) {
	t.Helper()
	base := time.Date(2026, 3, 9, 8, 15, 0, 123456789, time.UTC)
	for i, e := range []model.CaffeineEntry{
		{BeverageID: "coffee-1", BeverageName: "Espresso", ServingSize: "1 oz shot", CaffeineAmount: 63, Notes: "before standup"},
		{BeverageName: "Yerba mate, iced", ServingSize: "16 oz", CaffeineAmount: 150},
	} {
		e.OwnerID = owner
		e.Timestamp = base.Add(time.Duration(i) * time.Hour)
		if _, err := repo.Create(context.Background(), e); err != nil {
			t.Fatalf("seed entry %d: %v", i, err)
		}
	}
}

func TestExportImportJSONMovesEntriesToNewOwner(t *testing.T) {
	ctx := context.Background()
	src := service.NewSQLEntries(newTestDB(t))
	seedEntries(t, src, "alice")

	prefs := model.Preferences{UnitPreference: model.UnitMl}
	data, err := service.ExportSnapshot(ctx, src, "alice", &prefs)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded service.ExportData
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Version != 1 || decoded.OwnerID != "alice" || len(decoded.Entries) != 2 {
		t.Fatalf("unexpected export payload: %+v", decoded)
	}

	dst := service.NewSQLEntries(newTestDB(t))
	report, err := service.ImportEntries(ctx, dst, "bob", decoded.Entries, service.ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Inserted != 2 || report.Skipped != 0 || len(report.Warnings) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	got, err := dst.List(ctx, "bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].CaffeineAmount != 150 || !got[1].Timestamp.Equal(decoded.Entries[1].Timestamp) {
		t.Fatalf("unexpected imported entries: %+v", got)
	}
}

func TestImportSkipFailAndDryRun(t *testing.T) {
	ctx := context.Background()
	repo := service.NewSQLEntries(newTestDB(t))
	seedEntries(t, repo, "alice")
	existing, err := repo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	fresh := model.CaffeineEntry{BeverageName: "Green Tea", CaffeineAmount: 28, Timestamp: time.Now()}
	batch := append([]model.CaffeineEntry{existing[0]}, fresh)

	dry, err := service.ImportEntries(ctx, repo, "alice", batch, service.ImportOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry-run: %v", err)
	}
	if dry.Inserted != 1 || dry.Skipped != 1 || dry.Conflicts != 1 {
		t.Fatalf("unexpected dry-run report: %+v", dry)
	}
	if after, _ := repo.List(ctx, "alice"); len(after) != 2 {
		t.Fatalf("dry-run must not write, have %d entries", len(after))
	}

	if _, err := service.ImportEntries(ctx, repo, "alice", batch, service.ImportOptions{Mode: service.ImportModeFail}); err == nil {
		t.Fatalf("expected fail mode to reject a duplicate id")
	}
	if _, err := service.ImportEntries(ctx, repo, "alice", batch, service.ImportOptions{Mode: "merge"}); err == nil {
		t.Fatalf("expected unknown mode error")
	}

	skip, err := service.ImportEntries(ctx, repo, "alice", batch, service.ImportOptions{Mode: service.ImportModeSkip})
	if err != nil {
		t.Fatalf("skip import: %v", err)
	}
	if skip.Inserted != 1 || skip.Skipped != 1 {
		t.Fatalf("unexpected skip report: %+v", skip)
	}
}

func TestImportAnotherUsersExportIntoSameDB(t *testing.T) {
	ctx := context.Background()
	repo := service.NewSQLEntries(newTestDB(t))
	seedEntries(t, repo, "alice")
	data, err := service.ExportSnapshot(ctx, repo, "alice", nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	batch := append([]model.CaffeineEntry{{BeverageName: "Green Tea", CaffeineAmount: 28, Timestamp: time.Now()}}, data.Entries...)

	dry, err := service.ImportEntries(ctx, repo, "bob", batch, service.ImportOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry-run: %v", err)
	}
	if dry.Inserted != 3 || dry.Conflicts != 0 {
		t.Fatalf("unexpected dry-run report: %+v", dry)
	}
	if got, _ := repo.List(ctx, "bob"); len(got) != 0 {
		t.Fatalf("dry-run must not write, bob has %d entries", len(got))
	}

	report, err := service.ImportEntries(ctx, repo, "bob", batch, service.ImportOptions{Mode: service.ImportModeSkip})
	if err != nil {
		t.Fatalf("import as bob: %v", err)
	}
	if report.Inserted != 3 || report.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	bob, err := repo.List(ctx, "bob")
	if err != nil {
		t.Fatalf("list bob: %v", err)
	}
	alice, err := repo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list alice: %v", err)
	}
	if len(bob) != 3 || len(alice) != 2 {
		t.Fatalf("expected bob=3 alice=2, got bob=%d alice=%d", len(bob), len(alice))
	}
	for _, b := range bob {
		for _, a := range alice {
			if a.ID == b.ID {
				t.Fatalf("bob's copy reused alice's id %s", a.ID)
			}
		}
	}

	again, err := service.ImportEntries(ctx, repo, "bob", bob, service.ImportOptions{})
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if again.Inserted != 0 || again.Skipped != 3 {
		t.Fatalf("expected bob's own ids to be skipped, got %+v", again)
	}
}

func TestImportDuplicateIDsWithinBatch(t *testing.T) {
	t.Parallel()
	repo := service.NewSQLEntries(newTestDB(t))
	e := model.CaffeineEntry{ID: "dup-1", BeverageName: "Cola", CaffeineAmount: 34, Timestamp: time.Now()}
	report, err := service.ImportEntries(context.Background(), repo, "alice", []model.CaffeineEntry{e, e}, service.ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Inserted != 1 || report.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestCreateBatchRollsBackOnFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := service.NewSQLEntries(newTestDB(t))
	now := time.Now()
	_, err := repo.CreateBatch(ctx, []model.CaffeineEntry{
		{ID: "a", OwnerID: "alice", BeverageName: "Espresso", CaffeineAmount: 63, Timestamp: now},
		{ID: "b", OwnerID: "alice", BeverageName: "Latte", CaffeineAmount: 63, Timestamp: now},
		{ID: "a", OwnerID: "alice", BeverageName: "Espresso again", CaffeineAmount: 63, Timestamp: now},
	})
	if err == nil {
		t.Fatalf("expected duplicate id to fail the batch")
	}
	got, err := repo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected rollback, found %d entries", len(got))
	}
}

func TestImportRejectsInvalidEntries(t *testing.T) {
	t.Parallel()
	repo := service.NewSQLEntries(newTestDB(t))
	cases := []model.CaffeineEntry{
		{BeverageName: "Bad", CaffeineAmount: -1, Timestamp: time.Now()},
		{BeverageName: "No time", CaffeineAmount: 10},
		{BeverageName: "  ", CaffeineAmount: 10, Timestamp: time.Now()},
	}
	for i, e := range cases {
		if _, err := service.ImportEntries(context.Background(), repo, "alice", []model.CaffeineEntry{e}, service.ImportOptions{}); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestEntriesCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := service.NewSQLEntries(newTestDB(t))
	seedEntries(t, repo, "alice")
	entries, err := repo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var buf bytes.Buffer
	if err := service.WriteEntriesCSV(&buf, entries); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "id,beverage_id,beverage_name,serving_size,caffeine_mg,consumed_at,notes\n") {
		t.Fatalf("unexpected csv header: %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"Yerba mate, iced"`) {
		t.Fatalf("expected quoted name with comma, got %q", buf.String())
	}

	got, err := service.ReadEntriesCSV(&buf)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("expected %d rows, got %d", len(entries), len(got))
	}
	for i := range got {
		if got[i].ID != entries[i].ID || got[i].CaffeineAmount != entries[i].CaffeineAmount || !got[i].Timestamp.Equal(entries[i].Timestamp) {
			t.Fatalf("row %d mismatch: got %+v want %+v", i, got[i], entries[i])
		}
	}
}

func TestReadEntriesCSVErrors(t *testing.T) {
	t.Parallel()
	header := "id,beverage_id,beverage_name,serving_size,caffeine_mg,consumed_at,notes\n"
	cases := map[string]string{
		"empty":         header,
		"short row":     header + "a,b,c\n",
		"bad mg":        header + "a,custom,Tea,,lots,2026-03-09T08:00:00Z,\n",
		"bad timestamp": header + "a,custom,Tea,,40,yesterday,\n",
	}
	for name, body := range cases {
		if _, err := service.ReadEntriesCSV(strings.NewReader(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
