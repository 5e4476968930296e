package reliability

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// BackupJob runs the scheduled backup and rotation.
type BackupJob struct {
	backups       *BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job.
func NewBackupJob(backups *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backups:       backups,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name for scheduler logs.
func (j *BackupJob) Name() string {
	return "backup"
}

// Run creates and uploads a backup, then rotates old ones.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.backups.CreateAndUpload(ctx); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	if err := j.backups.RotateOldBackups(ctx, j.retentionDays); err != nil {
		// The backup itself succeeded. Log and report rotation separately.
		j.log.Error().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// MaintenanceJob performs nightly database upkeep: integrity check and WAL
// checkpoint to keep the log from growing unbounded.
type MaintenanceJob struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job.
func NewMaintenanceJob(db *sql.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:  db,
		log: log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for scheduler logs.
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance steps.
func (j *MaintenanceJob) Run() error {
	startTime := time.Now()

	var result string
	if err := j.db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check reported: %s", result)
	}

	if _, err := j.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		// Not fatal, the next checkpoint will catch up.
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	j.log.Info().Dur("duration_ms", time.Since(startTime)).Msg("Maintenance completed")
	return nil
}
