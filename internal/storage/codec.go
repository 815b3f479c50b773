package storage

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"fleets-server/internal/world"
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

func encodeDocument(w *world.World) ([]byte, error) {
	raw, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode world: %w", err)
	}
	return raw, nil
}

func decodeDocument(raw []byte) (*world.World, error) {
	var w world.World
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode world: %w", err)
	}
	w.Normalize()
	return &w, nil
}

// encodeCompressed is encodeDocument followed by zstd, for blob backends.
func encodeCompressed(w *world.World) ([]byte, error) {
	raw, err := encodeDocument(w)
	if err != nil {
		return nil, err
	}
	return zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func decodeCompressed(blob []byte) (*world.World, error) {
	raw, err := zstdDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress world: %w", err)
	}
	return decodeDocument(raw)
}
