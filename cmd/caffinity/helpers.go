package caffinity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/saadjs/caffinity-cli/internal/app"
	"github.com/saadjs/caffinity-cli/internal/config"
	"github.com/saadjs/caffinity-cli/internal/db"
	"github.com/saadjs/caffinity-cli/internal/identity"
	"github.com/saadjs/caffinity-cli/internal/logger"
	"github.com/saadjs/caffinity-cli/internal/metrics"
	"github.com/saadjs/caffinity-cli/internal/model"
	"github.com/saadjs/caffinity-cli/internal/service"
)

// cliEnv is everything a command needs for one invocation.
type cliEnv struct {
	ctx       context.Context
	db        *db.DB
	location  string
	cfg       *config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   metrics.MetricsCollector
	beverages *service.SQLBeverages
	repo      *service.SQLEntries
	entries   *service.EntryService
}

func withEnv(cmd *cobra.Command, run func(*cliEnv) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log := logger.Setup(cmd.ErrOrStderr(), level)

	driver := strings.ToLower(strings.TrimSpace(dbDriver))
	if driver == "" {
		driver = cfg.DBDriver
	}
	location, err := app.ResolveDataSource(driver, dbPath, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := app.PrepareDataSource(driver, location); err != nil {
		return err
	}
	d, err := db.OpenDriver(driver, location)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := db.ApplyMigrations(d); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	beverages := service.NewSQLBeverages(d)
	repo := service.NewSQLEntries(d)
	env := &cliEnv{
		ctx:       cmd.Context(),
		db:        d,
		location:  location,
		cfg:       cfg,
		logger:    log,
		registry:  reg,
		metrics:   collector,
		beverages: beverages,
		repo:      repo,
		entries:   service.NewEntryService(repo, beverages, nil, log, collector),
	}
	if env.ctx == nil {
		env.ctx = context.Background()
	}

	runErr := run(env)
	if strings.TrimSpace(metricsFile) != "" {
		if err := metrics.WriteTextfile(metricsFile, reg); err != nil {
			log.Warn("metrics textfile not written", "path", metricsFile, "error", err)
		}
	}
	return runErr
}

// userID resolves who the command acts for: a verified access token, then
// --user, then the active user saved by init. With a token, --user may only
// name the token's subject.
func (env *cliEnv) userID() (string, error) {
	flagUser := strings.TrimSpace(userFlag)
	if strings.TrimSpace(env.cfg.AccessToken) != "" {
		session, err := identity.ParseAccessToken(env.cfg.AccessToken, []byte(env.cfg.JWTSecret))
		if err != nil {
			return "", fmt.Errorf("resolve user from CAFFINITY_ACCESS_TOKEN: %w", err)
		}
		if flagUser != "" && flagUser != session.UserID {
			return "", fmt.Errorf("--user %q does not match the user in CAFFINITY_ACCESS_TOKEN", flagUser)
		}
		return session.UserID, nil
	}
	if flagUser != "" {
		return flagUser, nil
	}
	v, ok, err := service.GetConfig(env.ctx, env.db, service.ConfigActiveUser)
	if err != nil {
		return "", withRetryHint(err)
	}
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("no active user; run `caffinity init` or `caffinity user new`")
	}
	return v, nil
}

// ensureActiveUser returns the saved active user, creating one when none
// exists yet.
func (env *cliEnv) ensureActiveUser() (string, bool, error) {
	v, ok, err := service.GetConfig(env.ctx, env.db, service.ConfigActiveUser)
	if err != nil {
		return "", false, err
	}
	if ok && strings.TrimSpace(v) != "" {
		return v, false, nil
	}
	id := uuid.NewString()
	if err := service.SetConfig(env.ctx, env.db, service.ConfigActiveUser, id); err != nil {
		return "", false, err
	}
	return id, true, nil
}

// snapshot loads the user's entries. A failure keeps the command from
// rendering an empty view as if it were real data.
func (env *cliEnv) snapshot(ownerID string) ([]model.CaffeineEntry, error) {
	entries, err := env.entries.Snapshot(env.ctx, ownerID)
	if err != nil {
		env.logger.Error("load entries", "owner", ownerID, "error", err)
		return nil, withRetryHint(err)
	}
	return entries, nil
}

func withRetryHint(err error) error {
	if errors.Is(err, model.ErrStorage) && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%w\nCould not reach your caffeine data. Check the database connection and try again.", err)
	}
	return err
}

func parseDayFlag(value string) (service.DayKey, error) {
	if strings.TrimSpace(value) == "" {
		return service.Today(nowFunc()), nil
	}
	day, err := service.NormalizeRaw(value)
	if err != nil {
		return "", fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", value)
	}
	return day, nil
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(b))
	return nil
}
