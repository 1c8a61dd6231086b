package backup

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	apperrors "workforce-ingest/internal/errors"
)

// Algorithm identifies an artifact compression algorithm
type Algorithm string

const (
	AlgorithmNone Algorithm = "none"
	AlgorithmGzip Algorithm = "gzip"
	AlgorithmZstd Algorithm = "zstd"
	AlgorithmLZ4  Algorithm = "lz4"
)

// Compressor compresses and decompresses artifact payloads
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Algorithm() Algorithm
}

// CompressionManager dispatches to the registered compressors. Decompression
// always follows the algorithm recorded in the artifact, not the configured
// one, so restores survive configuration changes.
type CompressionManager struct {
	compressors map[Algorithm]Compressor
}

// NewCompressionManager creates a manager with all supported algorithms registered
func NewCompressionManager() *CompressionManager {
	return &CompressionManager{
		compressors: map[Algorithm]Compressor{
			AlgorithmGzip: &GzipCompressor{level: gzip.DefaultCompression},
			AlgorithmZstd: &ZstdCompressor{},
			AlgorithmLZ4:  &LZ4Compressor{},
		},
	}
}

// Compress compresses data with the given algorithm
func (m *CompressionManager) Compress(data []byte, algorithm Algorithm) ([]byte, error) {
	if algorithm == AlgorithmNone || algorithm == "" {
		return data, nil
	}
	compressor, ok := m.compressors[algorithm]
	if !ok {
		return nil, apperrors.NewFault(fmt.Sprintf("unsupported compression algorithm: %s", algorithm), nil)
	}
	return compressor.Compress(data)
}

// Decompress decompresses data with the given algorithm
func (m *CompressionManager) Decompress(data []byte, algorithm Algorithm) ([]byte, error) {
	if algorithm == AlgorithmNone || algorithm == "" {
		return data, nil
	}
	compressor, ok := m.compressors[algorithm]
	if !ok {
		return nil, apperrors.NewFault(fmt.Sprintf("unsupported compression algorithm: %s", algorithm), nil)
	}
	return compressor.Decompress(data)
}

// GzipCompressor implements gzip compression
type GzipCompressor struct {
	level int
}

// Compress compresses data using gzip
func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, apperrors.NewFault("failed to create gzip writer", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, apperrors.NewFault("failed to compress data", err)
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.NewFault("failed to finalize gzip stream", err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses gzip data
func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewFault("failed to create gzip reader", err)
	}
	defer reader.Close()

	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.NewFault("failed to decompress data", err)
	}
	return out, nil
}

// Algorithm returns the gzip identifier
func (c *GzipCompressor) Algorithm() Algorithm { return AlgorithmGzip }

// ZstdCompressor implements zstd compression
type ZstdCompressor struct{}

// Compress compresses data using zstd
func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, apperrors.NewFault("failed to create zstd encoder", err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}

// Decompress decompresses zstd data
func (c *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, apperrors.NewFault("failed to create zstd decoder", err)
	}
	defer decoder.Close()

	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, apperrors.NewFault("failed to decompress data", err)
	}
	return out, nil
}

// Algorithm returns the zstd identifier
func (c *ZstdCompressor) Algorithm() Algorithm { return AlgorithmZstd }

// LZ4Compressor implements lz4 compression
type LZ4Compressor struct{}

// Compress compresses data using lz4
func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		return nil, apperrors.NewFault("failed to compress data", err)
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.NewFault("failed to finalize lz4 stream", err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses lz4 data
func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.NewFault("failed to decompress data", err)
	}
	return out, nil
}

// Algorithm returns the lz4 identifier
func (c *LZ4Compressor) Algorithm() Algorithm { return AlgorithmLZ4 }
