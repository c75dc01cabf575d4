package storage

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"
)

// CompressedSuffix marks stored objects that were gzip-compressed on the
// way in, so Get can reverse it without a metadata lookup.
const CompressedSuffix = ".gz"

// DefaultCompressThreshold is the minimum payload size worth compressing.
const DefaultCompressThreshold = 1024

// precompressedExts are container formats that are already deflated;
// re-compressing them burns CPU for nothing.
var precompressedExts = map[string]struct{}{
	".pptx": {},
	".potx": {},
	".zip":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
	".gz":   {},
}

func compressible(name string, size, threshold int) bool {
	if size < threshold {
		return false
	}
	_, pre := precompressedExts[strings.ToLower(path.Ext(name))]
	return !pre
}

// maybeCompress applies the compression heuristic and returns the name to
// store under plus the payload bytes.
func maybeCompress(name string, data []byte, threshold int) (string, []byte, error) {
	if !compressible(name, len(data), threshold) {
		return name, data, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", nil, fmt.Errorf("gzip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", nil, fmt.Errorf("gzip: %w", err)
	}

	return name + CompressedSuffix, buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	return out, nil
}
