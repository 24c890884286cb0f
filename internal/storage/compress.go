package storage

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Shared zstd coders; both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("storage: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("storage: zstd decoder initialization failed: " + err.Error())
	}
}

func compress(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

func decompress(compressed []byte, size int) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
	}
	return out, nil
}
