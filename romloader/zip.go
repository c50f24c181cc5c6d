package romloader

import (
	"archive/zip"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// extractFromZIP extracts the first CHIP-8 program from a ZIP archive
func (l *Loader) extractFromZIP(f afero.File) ([]byte, string, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat zip: %w", err)
	}

	r, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open zip: %w", err)
	}

	for _, file := range r.File {
		if file.FileInfo().IsDir() || !isROMFile(file.Name) {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s in zip: %w", file.Name, err)
		}
		data, err := l.limitedRead(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		return data, filepath.Base(file.Name), nil
	}

	return nil, "", ErrNoROMFile
}
