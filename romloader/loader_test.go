package romloader

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

const testMaxSize = 4096

// newTestLoader returns a loader over an in-memory filesystem.
func newTestLoader() (*Loader, afero.Fs) {
	fs := afero.NewMemMapFs()
	return NewLoader(fs, testMaxSize), fs
}

// writeTestFile stores data at path in fs.
func writeTestFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
}

// createTestZip builds a ZIP archive with the given entries.
func createTestZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("Failed to write to zip: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// createTestTar builds an uncompressed tar archive with one entry.
func createTestTar(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := tar.NewWriter(&buf)
	hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(data)), Typeflag: tar.TypeReg}
	if err := w.WriteHeader(hdr); err != nil {
		t.Fatalf("Failed to write tar header: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Failed to write tar data: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close tar: %v", err)
	}
	return buf.Bytes()
}

// compressors produce the single-stream formats under test.
var compressors = map[string]func(w io.Writer) (io.WriteCloser, error){
	".gz": func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriter(w), nil },
	".zst": func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	},
	".xz": func(w io.Writer) (io.WriteCloser, error) {
		return xz.NewWriter(w)
	},
	".lz4": func(w io.Writer) (io.WriteCloser, error) { return lz4.NewWriter(w), nil },
	".br":  func(w io.Writer) (io.WriteCloser, error) { return brotli.NewWriter(w), nil },
}

// compress encodes data with the compressor registered for ext.
func compress(t *testing.T, ext string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := compressors[ext](&buf)
	if err != nil {
		t.Fatalf("Failed to create %s writer: %v", ext, err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Failed to write %s: %v", ext, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close %s: %v", ext, err)
	}
	return buf.Bytes()
}

// TestLoader_RawLoad tests loading plain program files
func TestLoader_RawLoad(t *testing.T) {
	loader, fs := newTestLoader()
	testData := []byte{0x00, 0xE0, 0x12, 0x00}

	for _, name := range []string{"/roms/test.ch8", "/roms/test.c8", "/roms/TEST.CHIP8"} {
		writeTestFile(t, fs, name, testData)

		data, romName, err := loader.Load(name)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", name, err)
		}
		if !bytes.Equal(data, testData) {
			t.Errorf("Data mismatch: expected %v, got %v", testData, data)
		}
		if romName != filepath.Base(name) {
			t.Errorf("Name mismatch: expected %s, got %s", filepath.Base(name), romName)
		}
	}
}

// TestLoader_ZipLoad tests loading a program from ZIP archives
func TestLoader_ZipLoad(t *testing.T) {
	loader, fs := newTestLoader()
	testData := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	writeTestFile(t, fs, "/roms/test.zip", createTestZip(t, map[string][]byte{
		"readme.txt":     []byte("not a program"),
		"games/pong.ch8": testData,
	}))

	data, name, err := loader.Load("/roms/test.zip")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}
	if name != "pong.ch8" {
		t.Errorf("Name mismatch: expected pong.ch8, got %s", name)
	}
}

// TestLoader_CompressedLoad tests every single-stream format
func TestLoader_CompressedLoad(t *testing.T) {
	testData := []byte{0x60, 0x0A, 0xA2, 0x2A, 0x12, 0x04}

	for ext := range compressors {
		t.Run(ext, func(t *testing.T) {
			loader, fs := newTestLoader()
			path := "/roms/game.ch8" + ext
			writeTestFile(t, fs, path, compress(t, ext, testData))

			data, name, err := loader.Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if !bytes.Equal(data, testData) {
				t.Errorf("Data mismatch: expected %v, got %v", testData, data)
			}
			if name != "game.ch8" {
				t.Errorf("Name mismatch: expected game.ch8, got %s", name)
			}
		})
	}
}

// TestLoader_CompressedTarLoad tests tarballs under a stream compressor
func TestLoader_CompressedTarLoad(t *testing.T) {
	testData := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	loader, fs := newTestLoader()

	tarball := createTestTar(t, "chip8/maze.ch8", testData)
	writeTestFile(t, fs, "/roms/maze.tar.gz", compress(t, ".gz", tarball))

	data, name, err := loader.Load("/roms/maze.tar.gz")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}
	if name != "maze.ch8" {
		t.Errorf("Name mismatch: expected maze.ch8, got %s", name)
	}

	// A tarball without a program
	tarball = createTestTar(t, "notes.txt", []byte("hello"))
	writeTestFile(t, fs, "/roms/empty.tar.zst", compress(t, ".zst", tarball))
	if _, _, err := loader.Load("/roms/empty.tar.zst"); !errors.Is(err, ErrNoROMFile) {
		t.Errorf("Expected ErrNoROMFile, got %v", err)
	}
}

// TestLoader_FormatDetectionMagic tests detection via magic bytes
func TestLoader_FormatDetectionMagic(t *testing.T) {
	testCases := []struct {
		header   []byte
		path     string
		expected formatType
	}{
		{[]byte{0x50, 0x4B, 0x03, 0x04}, "file.dat", formatZIP},
		{[]byte{0x50, 0x4B, 0x05, 0x06}, "file.dat", formatZIP},
		{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, "file.dat", format7z},
		{[]byte{0x1F, 0x8B}, "file.dat", formatGzip},
		{[]byte{0x52, 0x61, 0x72, 0x21}, "file.dat", formatRAR},
		{[]byte{0x28, 0xB5, 0x2F, 0xFD}, "file.dat", formatZstd},
		{[]byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}, "file.dat", formatXZ},
		{[]byte{0x04, 0x22, 0x4D, 0x18}, "file.dat", formatLZ4},
		// Magic wins over a misleading extension
		{[]byte{0x50, 0x4B, 0x03, 0x04}, "file.ch8", formatZIP},
	}

	for _, tc := range testCases {
		result := detectFormat(tc.header, tc.path)
		if result != tc.expected {
			t.Errorf("detectFormat(%v, %s): expected %d, got %d", tc.header, tc.path, tc.expected, result)
		}
	}
}

// TestLoader_FormatDetectionExtension tests fallback to extension
func TestLoader_FormatDetectionExtension(t *testing.T) {
	testCases := []struct {
		path     string
		expected formatType
	}{
		{"game.ch8", formatRaw},
		{"game.CH8", formatRaw},
		{"game.c8", formatRaw},
		{"game.chip8", formatRaw},
		{"game.zip", formatZIP},
		{"game.ZIP", formatZIP},
		{"game.7z", format7z},
		{"game.gz", formatGzip},
		{"game.tgz", formatGzip},
		{"game.tar.gz", formatGzip},
		{"game.rar", formatRAR},
		{"game.zst", formatZstd},
		{"game.xz", formatXZ},
		{"game.lz4", formatLZ4},
		{"game.br", formatBrotli},
		{"game.unknown", formatRaw},
		{"game.sms", formatRaw},
		{"PONG", formatRaw},
	}

	for _, tc := range testCases {
		// Use empty header to force extension-based detection
		result := detectFormat([]byte{}, tc.path)
		if result != tc.expected {
			t.Errorf("detectFormat([], %s): expected %d, got %d", tc.path, tc.expected, result)
		}
	}
}

// TestLoader_NoROMInArchive tests error when no program is found in an archive
func TestLoader_NoROMInArchive(t *testing.T) {
	loader, fs := newTestLoader()
	writeTestFile(t, fs, "/roms/test.zip", createTestZip(t, map[string][]byte{
		"readme.txt": []byte("not a program"),
	}))

	_, _, err := loader.Load("/roms/test.zip")
	if !errors.Is(err, ErrNoROMFile) {
		t.Errorf("Expected ErrNoROMFile, got %v", err)
	}
}

// TestLoader_FileTooLarge tests the size limit for raw and archived files
func TestLoader_FileTooLarge(t *testing.T) {
	loader, fs := newTestLoader()
	big := make([]byte, testMaxSize+1)

	writeTestFile(t, fs, "/roms/big.ch8", big)
	if _, _, err := loader.Load("/roms/big.ch8"); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Raw: expected ErrFileTooLarge, got %v", err)
	}

	writeTestFile(t, fs, "/roms/big.zip", createTestZip(t, map[string][]byte{"big.ch8": big}))
	if _, _, err := loader.Load("/roms/big.zip"); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("ZIP: expected ErrFileTooLarge, got %v", err)
	}

	writeTestFile(t, fs, "/roms/big.ch8.xz", compress(t, ".xz", big))
	if _, _, err := loader.Load("/roms/big.ch8.xz"); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("xz: expected ErrFileTooLarge, got %v", err)
	}

	// Exactly at the limit is accepted
	writeTestFile(t, fs, "/roms/max.ch8", big[:testMaxSize])
	if _, _, err := loader.Load("/roms/max.ch8"); err != nil {
		t.Errorf("File at limit should load: %v", err)
	}
}

// TestLoader_FileNotFound tests error for non-existent file
func TestLoader_FileNotFound(t *testing.T) {
	loader, _ := newTestLoader()

	_, _, err := loader.Load("/roms/missing.ch8")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

// TestLoader_RawFallback tests that files without a known extension load
// as raw programs, even when their first bytes match a compression magic
func TestLoader_RawFallback(t *testing.T) {
	loader, fs := newTestLoader()

	testCases := map[string][]byte{
		"/roms/PONG":            {0x00, 0xE0, 0x12, 0x00},
		"/roms/pong.rom":        {0x61, 0x42, 0x12, 0x00},
		"/roms/test_opcode.bin": {0x12, 0x4E, 0xEA, 0xAC},
		"/roms/gzlike":          {0x1F, 0x8B, 0x60, 0x01, 0x12, 0x00},
		"/roms/zstdlike.rom":    {0x28, 0xB5, 0x2F, 0xFD, 0x12, 0x00},
		"/roms/lz4like.bin":     {0x04, 0x22, 0x4D, 0x18, 0x12, 0x00},
	}

	for path, testData := range testCases {
		writeTestFile(t, fs, path, testData)

		data, romName, err := loader.Load(path)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", path, err)
		}
		if !bytes.Equal(data, testData) {
			t.Errorf("Load(%s): expected %v, got %v", path, testData, data)
		}
		if romName != filepath.Base(path) {
			t.Errorf("Load(%s): expected name %s, got %s", path, filepath.Base(path), romName)
		}
	}
}

// TestLoader_RawFallbackTooLarge tests that the raw fallback keeps the size limit
func TestLoader_RawFallbackTooLarge(t *testing.T) {
	loader, fs := newTestLoader()
	big := make([]byte, testMaxSize+1)
	big[0], big[1] = 0x1F, 0x8B
	writeTestFile(t, fs, "/roms/big", big)

	_, _, err := loader.Load("/roms/big")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}
}

// TestLoader_CorruptArchives tests that broken archives report errors
func TestLoader_CorruptArchives(t *testing.T) {
	loader, fs := newTestLoader()

	testCases := map[string][]byte{
		"/roms/bad.zip": {0x50, 0x4B, 0x03, 0x04, 0x00, 0x00},
		"/roms/bad.7z":  {0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C, 0x00, 0x04},
		"/roms/bad.rar": {0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00},
		"/roms/bad.gz":  {0x1F, 0x8B, 0x00},
	}

	for path, data := range testCases {
		writeTestFile(t, fs, path, data)
		if _, _, err := loader.Load(path); err == nil {
			t.Errorf("Load(%s): expected error for corrupt archive", path)
		}
	}
}

// TestLoader_IsROMFile tests the extension check
func TestLoader_IsROMFile(t *testing.T) {
	testCases := []struct {
		name     string
		expected bool
	}{
		{"pong.ch8", true},
		{"PONG.CH8", true},
		{"maze.c8", true},
		{"dir/tetris.chip8", true},
		{"game.sms", false},
		{"ch8", false},
		{"readme.txt", false},
	}

	for _, tc := range testCases {
		if got := isROMFile(tc.name); got != tc.expected {
			t.Errorf("isROMFile(%q): expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

// TestLoadROM_OsFs tests the package-level helper against the real filesystem
func TestLoadROM_OsFs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.ch8")
	testData := []byte{0x00, 0xE0}
	writeTestFile(t, afero.NewOsFs(), path, testData)

	data, name, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if !bytes.Equal(data, testData) || name != "disk.ch8" {
		t.Errorf("LoadROM: got %v %q", data, name)
	}
}
