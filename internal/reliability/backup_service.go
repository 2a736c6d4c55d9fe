package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/database"
	"github.com/stocklab/stocklab/internal/version"
)

const (
	archivePrefix   = "stocklab-backup-"
	archiveSuffix   = ".tar.gz"
	archiveTimeFmt  = "2006-01-02-150405"
	metadataFile    = "backup-metadata.json"
	metadataVersion = "1.0.0"

	// MinBackupsToKeep is retained regardless of age
	MinBackupsToKeep = 3
)

// BackupMetadata contains metadata about a backup
type BackupMetadata struct {
	Timestamp  time.Time          `json:"timestamp"`
	Version    string             `json:"version"`
	AppVersion string             `json:"app_version"`
	Databases  []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata contains metadata about a single database in the backup
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo represents a backup stored in the bucket
type BackupInfo struct {
	Key       string    `json:"key"`
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupService snapshots the databases into tar.gz archives and ships them to object storage
type BackupService struct {
	store     ObjectStore
	databases []*database.DB
	dataDir   string
	prefix    string
	log       zerolog.Logger
	now       func() time.Time
}

// NewBackupService creates a new backup service. store may be nil for local archives only.
func NewBackupService(store ObjectStore, dataDir, prefix string, log zerolog.Logger, databases ...*database.DB) *BackupService {
	return &BackupService{
		store:     store,
		databases: databases,
		dataDir:   dataDir,
		prefix:    strings.Trim(prefix, "/"),
		log:       log.With().Str("service", "backup").Logger(),
		now:       time.Now,
	}
}

// CreateArchive snapshots every database into a tar.gz archive in destDir.
// Returns the archive path and its metadata.
func (s *BackupService) CreateArchive(ctx context.Context, destDir string) (string, *BackupMetadata, error) {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	stagingDir, err := os.MkdirTemp(s.dataDir, "backup-staging-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	timestamp := s.now().UTC()
	metadata := &BackupMetadata{
		Timestamp:  timestamp,
		Version:    metadataVersion,
		AppVersion: version.Version,
		Databases:  make([]DatabaseMetadata, 0, len(s.databases)),
	}

	files := make([]string, 0, len(s.databases)+1)
	for _, db := range s.databases {
		if db == nil {
			continue
		}
		filename := db.Name() + ".db"
		dbPath := filepath.Join(stagingDir, filename)

		s.log.Debug().Str("database", db.Name()).Msg("Snapshotting database")
		if err := db.SnapshotTo(ctx, dbPath); err != nil {
			return "", nil, fmt.Errorf("failed to backup %s: %w", db.Name(), err)
		}

		info, err := os.Stat(dbPath)
		if err != nil {
			return "", nil, fmt.Errorf("failed to stat %s backup: %w", db.Name(), err)
		}
		checksum, err := fileChecksum(dbPath)
		if err != nil {
			return "", nil, fmt.Errorf("failed to calculate checksum for %s: %w", db.Name(), err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      db.Name(),
			Filename:  filename,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		files = append(files, filename)
	}

	if len(metadata.Databases) == 0 {
		return "", nil, fmt.Errorf("no databases to back up")
	}

	if err := writeMetadata(filepath.Join(stagingDir, metadataFile), metadata); err != nil {
		return "", nil, fmt.Errorf("failed to write metadata: %w", err)
	}
	files = append(files, metadataFile)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create destination directory: %w", err)
	}
	archivePath := filepath.Join(destDir, ArchiveName(timestamp))
	if err := createArchive(archivePath, stagingDir, files); err != nil {
		return "", nil, fmt.Errorf("failed to create archive: %w", err)
	}

	return archivePath, metadata, nil
}

// CreateAndUploadBackup creates a backup archive and uploads it to the bucket
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) (*BackupInfo, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no object store configured")
	}

	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	tmpDir, err := os.MkdirTemp(s.dataDir, "backup-upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	archivePath, metadata, err := s.CreateArchive(ctx, tmpDir)
	if err != nil {
		return nil, err
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	info, err := archiveFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	filename := filepath.Base(archivePath)
	key := s.objectKey(filename)
	if err := s.store.Upload(ctx, key, archiveFile); err != nil {
		return nil, err
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("key", key).
		Int("databases", len(metadata.Databases)).
		Int64("size_kb", info.Size()/1024).
		Msg("Backup uploaded")

	return &BackupInfo{
		Key:       key,
		Filename:  filename,
		Timestamp: metadata.Timestamp,
		SizeBytes: info.Size(),
	}, nil
}

// ListBackups lists stored backups, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no object store configured")
	}

	objects, err := s.store.List(ctx, s.objectKey(archivePrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		filename := path.Base(obj.Key)
		timestamp, ok := ParseArchiveName(filename)
		if !ok {
			s.log.Warn().Str("key", obj.Key).Msg("Skipping object with unexpected name")
			continue
		}
		backups = append(backups, BackupInfo{
			Key:       obj.Key,
			Filename:  filename,
			Timestamp: timestamp,
			SizeBytes: obj.SizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups deletes backups older than the retention period.
// Keeps at least MinBackupsToKeep backups regardless of age. Returns the number deleted.
func (s *BackupService) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}

	expired := ExpiredBackups(backups, retentionDays, s.now())
	deleted := 0
	for _, backup := range expired {
		if err := s.store.Delete(ctx, backup.Key); err != nil {
			s.log.Error().Err(err).Str("key", backup.Key).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().
			Str("key", backup.Key).
			Time("timestamp", backup.Timestamp).
			Msg("Deleted old backup")
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")
	return deleted, nil
}

// VerifyLatest downloads the newest backup and checks every database checksum
func (s *BackupService) VerifyLatest(ctx context.Context) (*BackupMetadata, error) {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, fmt.Errorf("no backups found")
	}

	tmpDir, err := os.MkdirTemp(s.dataDir, "backup-verify-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create verification directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	localPath := filepath.Join(tmpDir, backups[0].Filename)
	file, err := os.Create(localPath)
	if err != nil {
		return nil, err
	}
	_, err = s.store.Download(ctx, backups[0].Key, file)
	file.Close()
	if err != nil {
		return nil, err
	}

	return VerifyArchive(localPath)
}

func (s *BackupService) objectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// ArchiveName returns the archive filename for a backup taken at t
func ArchiveName(t time.Time) string {
	return archivePrefix + t.UTC().Format(archiveTimeFmt) + archiveSuffix
}

// ParseArchiveName extracts the timestamp from an archive filename
func ParseArchiveName(filename string) (time.Time, bool) {
	if !strings.HasPrefix(filename, archivePrefix) || !strings.HasSuffix(filename, archiveSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(filename, archivePrefix), archiveSuffix)
	t, err := time.Parse(archiveTimeFmt, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ExpiredBackups returns the backups a rotation would delete.
// backups must be sorted newest first. retentionDays <= 0 keeps everything.
func ExpiredBackups(backups []BackupInfo, retentionDays int, now time.Time) []BackupInfo {
	if retentionDays <= 0 || len(backups) <= MinBackupsToKeep {
		return nil
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	var expired []BackupInfo
	for _, backup := range backups[MinBackupsToKeep:] {
		if backup.Timestamp.Before(cutoff) {
			expired = append(expired, backup)
		}
	}
	return expired
}

// VerifyArchive reads a backup archive and checks each database against its recorded checksum
func VerifyArchive(archivePath string) (*BackupMetadata, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("invalid archive: %w", err)
	}
	defer gz.Close()

	var metadata *BackupMetadata
	checksums := make(map[string]string)

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid archive: %w", err)
		}

		if header.Name == metadataFile {
			metadata = &BackupMetadata{}
			if err := json.NewDecoder(tr).Decode(metadata); err != nil {
				return nil, fmt.Errorf("invalid metadata: %w", err)
			}
			continue
		}

		hash := sha256.New()
		if _, err := io.Copy(hash, tr); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		checksums[header.Name] = fmt.Sprintf("sha256:%x", hash.Sum(nil))
	}

	if metadata == nil {
		return nil, fmt.Errorf("archive has no %s", metadataFile)
	}
	for _, db := range metadata.Databases {
		got, ok := checksums[db.Filename]
		if !ok {
			return nil, fmt.Errorf("archive is missing %s", db.Filename)
		}
		if got != db.Checksum {
			return nil, fmt.Errorf("checksum mismatch for %s", db.Filename)
		}
	}
	return metadata, nil
}

// fileChecksum calculates the SHA256 checksum of a file
func fileChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
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

func writeMetadata(path string, metadata *BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

// createArchive writes the named files from sourceDir into a tar.gz archive
func createArchive(archivePath, sourceDir string, files []string) (err error) {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if cerr := archiveFile.Close(); err == nil {
			err = cerr
		}
	}()

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, name := range files {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, name), name); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode().Perm()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
