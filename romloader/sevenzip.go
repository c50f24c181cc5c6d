package romloader

import (
	"fmt"
	"path/filepath"

	"github.com/bodgit/sevenzip"
	"github.com/spf13/afero"
)

// extractFrom7z extracts the first CHIP-8 program from a 7z archive
func (l *Loader) extractFrom7z(f afero.File) ([]byte, string, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat 7z: %w", err)
	}

	r, err := sevenzip.NewReader(f, info.Size())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open 7z: %w", err)
	}

	for _, file := range r.File {
		if file.FileInfo().IsDir() || !isROMFile(file.Name) {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s in 7z: %w", file.Name, err)
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
