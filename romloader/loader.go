// Package romloader handles loading CHIP-8 program files from various
// sources, including archives (ZIP, 7z, RAR) and single-stream
// compression (gzip, zstd, xz, lz4, brotli, optionally wrapping a tar).
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Magic bytes for format detection
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
	magicZstd   = []byte{0x28, 0xB5, 0x2F, 0xFD}
	magicXZ     = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
	magicLZ4    = []byte{0x04, 0x22, 0x4D, 0x18}
)

// DefaultMaxSize is the extraction limit used by LoadROM.
const DefaultMaxSize = 64 * 1024

// ErrNoROMFile is returned when no CHIP-8 program is found in an archive
var ErrNoROMFile = errors.New("no CHIP-8 program found in archive")

// ErrUnsupportedFormat is returned for unrecognized file formats
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrFileTooLarge is returned when extracted content exceeds size limit
var ErrFileTooLarge = errors.New("file exceeds maximum size limit")

// romExtensions are the file name suffixes accepted as CHIP-8 programs.
var romExtensions = []string{".ch8", ".c8", ".chip8"}

// formatType represents the detected file format
type formatType int

const (
	formatUnknown formatType = iota
	formatRaw
	formatZIP
	format7z
	formatGzip
	formatRAR
	formatZstd
	formatXZ
	formatLZ4
	formatBrotli
)

// Loader reads programs from a filesystem, unpacking archives and
// enforcing a size limit on the extracted data.
type Loader struct {
	fs      afero.Fs
	maxSize int
}

// NewLoader creates a loader reading from fs. Extracted programs larger
// than maxSize bytes are rejected with ErrFileTooLarge.
func NewLoader(fs afero.Fs, maxSize int) *Loader {
	return &Loader{fs: fs, maxSize: maxSize}
}

// LoadROM loads a program from a file path on the OS filesystem using
// DefaultMaxSize. See Loader.Load.
func LoadROM(path string) ([]byte, string, error) {
	return NewLoader(afero.NewOsFs(), DefaultMaxSize).Load(path)
}

// Load loads a program from a file path. It automatically detects and
// extracts from archives. Returns the program data, the filename of the
// program (useful for display), and any error encountered.
func (l *Loader) Load(path string) ([]byte, string, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Read header for magic byte detection
	header := make([]byte, 16)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, "", fmt.Errorf("failed to read file header: %w", err)
	}
	header = header[:n]

	format := detectFormat(header, path)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("failed to seek file: %w", err)
	}

	switch format {
	case formatRaw:
		return l.loadRaw(f, path)

	case formatZIP:
		return l.extractFromZIP(f)

	case format7z:
		return l.extractFrom7z(f)

	case formatRAR:
		return l.extractFromRAR(f)

	case formatGzip, formatZstd, formatXZ, formatLZ4, formatBrotli:
		data, name, err := l.extractFromStream(f, format, path)
		if errors.Is(err, errNotCompressed) && formatFromExt(path) == formatRaw {
			// Program bytes that happen to open with a compression magic.
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return nil, "", fmt.Errorf("failed to seek file: %w", err)
			}
			return l.loadRaw(f, path)
		}
		return data, name, err

	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// loadRaw reads f as an uncompressed program.
func (l *Loader) loadRaw(f io.Reader, path string) ([]byte, string, error) {
	data, err := l.limitedRead(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read ROM: %w", err)
	}
	return data, filepath.Base(path), nil
}

// detectFormat determines the file format based on magic bytes and extension
func detectFormat(header []byte, path string) formatType {
	// Check magic bytes first (more reliable)
	switch {
	case bytes.HasPrefix(header, magicZIP), bytes.HasPrefix(header, magicZIPEnd):
		return formatZIP
	case bytes.HasPrefix(header, magicRAR):
		return formatRAR
	case bytes.HasPrefix(header, magic7z):
		return format7z
	case bytes.HasPrefix(header, magicXZ):
		return formatXZ
	case bytes.HasPrefix(header, magicZstd):
		return formatZstd
	case bytes.HasPrefix(header, magicLZ4):
		return formatLZ4
	case bytes.HasPrefix(header, magicGzip):
		return formatGzip
	}

	// Brotli has no magic bytes.
	return formatFromExt(path)
}

// formatFromExt maps an archive extension to its format. Anything else,
// including a missing extension, is a raw program.
func formatFromExt(path string) formatType {
	lower := strings.ToLower(path)
	if isROMFile(lower) {
		return formatRaw
	}
	switch filepath.Ext(lower) {
	case ".zip":
		return formatZIP
	case ".7z":
		return format7z
	case ".gz", ".tgz":
		return formatGzip
	case ".rar":
		return formatRAR
	case ".zst", ".tzst":
		return formatZstd
	case ".xz", ".txz":
		return formatXZ
	case ".lz4":
		return formatLZ4
	case ".br":
		return formatBrotli
	}

	return formatRaw
}

// isROMFile checks if a filename has a CHIP-8 program extension (case-insensitive)
func isROMFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range romExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// limitedRead reads from r up to maxSize bytes, returning an error if exceeded
func (l *Loader) limitedRead(r io.Reader) ([]byte, error) {
	lr := io.LimitReader(r, int64(l.maxSize)+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if len(data) > l.maxSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
