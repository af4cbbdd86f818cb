// AngelaMos | 2026
// janitor.go

package janitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// TokenPurger is the slice of the auth repository the janitor needs.
type TokenPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
	DeleteExpiredResetTokens(ctx context.Context) (int64, error)
}

type PurgeResult struct {
	RefreshTokens int64 `json:"refresh_tokens"`
	ResetTokens   int64 `json:"reset_tokens"`
}

// Janitor runs scheduled cleanup of expired and revoked tokens. Audit logs
// are append-only and are never purged here.
type Janitor struct {
	cron   *cron.Cron
	purger TokenPurger
	logger *slog.Logger
}

func New(purger TokenPurger, logger *slog.Logger) *Janitor {
	return &Janitor{
		cron:   cron.New(),
		purger: purger,
		logger: logger,
	}
}

// Start registers the purge job and begins the scheduler. The schedule is
// standard 5-field cron syntax.
func (j *Janitor) Start(schedule string) error {
	_, err := j.cron.AddFunc(schedule, j.run)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("janitor started", "schedule", schedule)

	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("janitor stopped")
}

// Purge runs one cleanup pass. Both purges are attempted even when the
// first fails.
func (j *Janitor) Purge(ctx context.Context) (PurgeResult, error) {
	var result PurgeResult

	refresh, refreshErr := j.purger.DeleteExpired(ctx)
	result.RefreshTokens = refresh

	reset, resetErr := j.purger.DeleteExpiredResetTokens(ctx)
	result.ResetTokens = reset

	return result, errors.Join(refreshErr, resetErr)
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := j.Purge(ctx)
	if err != nil {
		j.logger.Error("token purge failed", "error", err)
	}

	if result.RefreshTokens > 0 || result.ResetTokens > 0 {
		j.logger.Info("purged expired tokens",
			"refresh_tokens", result.RefreshTokens,
			"reset_tokens", result.ResetTokens,
		)
	}
}
