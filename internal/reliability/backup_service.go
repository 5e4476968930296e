package reliability

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const backupPrefix = "fiscalguide-backup-"

// BackupService snapshots the database, compresses it, and ships it to an
// S3-compatible bucket with retention-based rotation.
type BackupService struct {
	db      *sql.DB
	store   *S3Client
	dataDir string
	log     zerolog.Logger
}

// BackupInfo describes one stored backup.
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

// NewBackupService creates a new backup service.
func NewBackupService(db *sql.DB, store *S3Client, dataDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:      db,
		store:   store,
		dataDir: dataDir,
		log:     log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUpload snapshots the database with VACUUM INTO, gzips the
// snapshot, and uploads it.
func (s *BackupService) CreateAndUpload(ctx context.Context) error {
	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	snapshotPath := filepath.Join(stagingDir, "fiscalguide.db")
	// VACUUM INTO produces a consistent single-file snapshot without
	// blocking writers.
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", snapshotPath); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}

	archiveName := backupPrefix + time.Now().UTC().Format("2006-01-02-150405") + ".db.gz"
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := compressFile(snapshotPath, archivePath); err != nil {
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}

	checksum, err := checksumFile(archivePath)
	if err != nil {
		return fmt.Errorf("failed to checksum archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.store.Upload(ctx, archiveName, archiveFile); err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}

	info, _ := os.Stat(archivePath)
	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", archiveName).
		Str("checksum", checksum).
		Int64("size_bytes", info.Size()).
		Msg("Backup completed")

	return nil
}

// ListBackups returns stored backups, newest first.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, backupPrefix)
	if err != nil {
		return nil, err
	}

	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}
		key := *obj.Key
		if !strings.HasSuffix(key, ".db.gz") {
			continue
		}

		timestampStr := strings.TrimSuffix(strings.TrimPrefix(key, backupPrefix), ".db.gz")
		timestamp, err := time.Parse("2006-01-02-150405", timestampStr)
		if err != nil {
			s.log.Warn().Str("key", key).Msg("Failed to parse timestamp from backup key")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}
		backups = append(backups, BackupInfo{Key: key, Timestamp: timestamp, SizeBytes: sizeBytes})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups deletes backups past the retention period, always keeping
// the newest three.
func (s *BackupService) RotateOldBackups(ctx context.Context, retentionDays int) error {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return err
	}

	const minBackupsToKeep = 3
	if len(backups) <= minBackupsToKeep || retentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for i, backup := range backups {
		if i < minBackupsToKeep || !backup.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, backup.Key); err != nil {
			s.log.Error().Err(err).Str("key", backup.Key).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("key", backup.Key).Msg("Deleted old backup")
		deleted++
	}

	s.log.Info().Int("deleted", deleted).Int("remaining", len(backups)-deleted).Msg("Backup rotation completed")
	return nil
}

func compressFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

func checksumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}
