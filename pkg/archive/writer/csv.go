package writer

import (
	"bufio"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
)

// CSVWriter writes day files through a temp file in the target directory that
// is renamed into place once fully flushed to disk.
type CSVWriter struct{}

// NewCSVWriter creates a CSVWriter.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

func (w *CSVWriter) WriteDay(path string, header []string, records []types.Record) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataWriteFailed, err, "failed to create directory %s", dir)
	}

	// .<name>.<uuid>.tmp never matches a day file name
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.New().String()+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataWriteFailed, err, "failed to create %s", tmpPath)
	}

	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
		}
	}()

	buf := bufio.NewWriterSize(f, 64*1024)
	cw := csv.NewWriter(buf)

	if err = cw.Write(header); err != nil {
		return archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataWriteFailed, err, "failed to write header of %s", path)
	}

	for _, record := range records {
		if err = cw.Write(record.Row(header)); err != nil {
			return archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataWriteFailed, err, "failed to write row of %s", path)
		}
	}

	cw.Flush()

	if err = cw.Error(); err != nil {
		return archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataWriteFailed, err, "failed to flush %s", path)
	}

	if err = buf.Flush(); err != nil {
		return archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataWriteFailed, err, "failed to flush %s", path)
	}

	if err = f.Sync(); err != nil {
		return archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataWriteFailed, err, "failed to sync %s", path)
	}

	if err = f.Close(); err != nil {
		return archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataWriteFailed, err, "failed to close %s", path)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataWriteFailed, err, "failed to move %s into place", path)
	}

	return nil
}
