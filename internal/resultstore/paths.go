package resultstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/takamgr/resultreader/internal/scorecard"
)

// tableFileName derives the table identity from the competition format
// and the calendar date.
func tableFileName(format scorecard.Format, day time.Time) string {
	return fmt.Sprintf("result_%s_%s.csv", format.Code(), day.Format("20060102"))
}

// writeTableFile persists the encoded table atomically: the bytes go to
// a temp file in the same directory and replace the old table with a
// rename, so an interrupted write never leaves a half-written table. The
// replaced version is kept as a zstd-compressed snapshot under backups/.
func writeTableFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create table directory: %w", err)
	}

	if old, err := os.ReadFile(path); err == nil {
		if err := writeBackup(path, old); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read previous table: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp table: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp table: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace table: %w", err)
	}
	return nil
}

func writeBackup(path string, old []byte) error {
	backupDir := filepath.Join(filepath.Dir(path), "backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	stamp := time.Now().Format("150405.000")
	name := fmt.Sprintf("%s.%s.zst", filepath.Base(path), stamp)

	f, err := os.Create(filepath.Join(backupDir, name))
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("failed to init backup compressor: %w", err)
	}
	if _, err := zw.Write(old); err != nil {
		zw.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish backup: %w", err)
	}
	return nil
}
