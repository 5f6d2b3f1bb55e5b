package blob

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const maxDecodedSize = 256 * 1024 * 1024

// Compressor wraps a lazily built zstd encoder/decoder pair. Safe for concurrent use.
type Compressor struct {
	level       int
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
	encoderOnce sync.Once
	decoderOnce sync.Once
	encoderErr  error
	decoderErr  error
}

// NewCompressor creates a compressor at the given zstd level (1-19).
func NewCompressor(level int) (*Compressor, error) {
	if level < 1 || level > 19 {
		return nil, fmt.Errorf("zstd level must be 1-19, got %d", level)
	}
	return &Compressor{level: level}, nil
}

func (c *Compressor) getEncoder() (*zstd.Encoder, error) {
	c.encoderOnce.Do(func() {
		c.encoder, c.encoderErr = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.level)),
			zstd.WithEncoderConcurrency(1),
		)
	})
	return c.encoder, c.encoderErr
}

func (c *Compressor) getDecoder() (*zstd.Decoder, error) {
	c.decoderOnce.Do(func() {
		c.decoder, c.decoderErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(maxDecodedSize),
		)
	})
	return c.decoder, c.decoderErr
}

func (c *Compressor) Compress(data []byte) ([]byte, error) {
	encoder, err := c.getEncoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	decoder, err := c.getDecoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}
