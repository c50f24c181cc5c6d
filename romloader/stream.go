package romloader

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// tarMagicOffset is where the "ustar" marker sits in a tar header block.
const tarMagicOffset = 257

var magicTar = []byte("ustar")

// errNotCompressed marks a stream the decoder rejected.
var errNotCompressed = errors.New("not a valid compressed stream")

// extractFromStream decompresses a single-stream file. The payload is
// either the program itself or a tar archive holding it.
func (l *Loader) extractFromStream(f io.Reader, format formatType, path string) ([]byte, string, error) {
	r, closer, err := decompressor(f, format)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errNotCompressed, err)
	}
	defer closer()

	br := bufio.NewReader(r)
	header, _ := br.Peek(tarMagicOffset + len(magicTar))
	if bytes.HasPrefix(header[min(len(header), tarMagicOffset):], magicTar) {
		return l.extractFromTar(br)
	}

	data, err := l.limitedRead(br)
	if err != nil {
		if !errors.Is(err, ErrFileTooLarge) {
			err = fmt.Errorf("%w: %w", errNotCompressed, err)
		}
		return nil, "", fmt.Errorf("failed to decompress: %w", err)
	}
	return data, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), nil
}

// decompressor wraps f in the reader for format. The returned func
// releases decoder resources.
func decompressor(f io.Reader, format formatType) (io.Reader, func(), error) {
	switch format {
	case formatGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open gzip: %w", err)
		}
		return gz, func() { _ = gz.Close() }, nil

	case formatZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open zstd: %w", err)
		}
		return zr, zr.Close, nil

	case formatXZ:
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open xz: %w", err)
		}
		return xr, func() {}, nil

	case formatLZ4:
		return lz4.NewReader(f), func() {}, nil

	case formatBrotli:
		return brotli.NewReader(f), func() {}, nil
	}
	return nil, nil, ErrUnsupportedFormat
}

// extractFromTar extracts the first CHIP-8 program from a tar stream
func (l *Loader) extractFromTar(r io.Reader) ([]byte, string, error) {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read tar entry: %w", err)
		}

		if header.Typeflag != tar.TypeReg || !isROMFile(header.Name) {
			continue
		}

		data, err := l.limitedRead(tr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		return data, filepath.Base(header.Name), nil
	}

	return nil, "", ErrNoROMFile
}
