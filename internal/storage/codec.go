package storage

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

// On-disk stores key records by a fixed-width digest of the composite cache
// key; the full key travels inside the record and is verified on read, so a
// digest collision degrades to a miss, never to a wrong value.

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// hashKey derives the record key for a composite cache key.
func hashKey(key string) []byte {
	sum := blake2b.Sum256([]byte(key))
	return []byte(hex.EncodeToString(sum[:]))
}

// record is the on-disk envelope.
type record struct {
	Key         string `json:"key"`
	Fingerprint string `json:"fingerprint"`
	Value       []byte `json:"value"`
}

// encodeRecord marshals and compresses a record.
func encodeRecord(key string, e Entry) ([]byte, error) {
	data, err := json.Marshal(record{Key: key, Fingerprint: e.Fingerprint, Value: e.Value})
	if err != nil {
		return nil, fmt.Errorf("encode cache record: %w", err)
	}
	return zstdEncoder.EncodeAll(data, nil), nil
}

// decodeRecord decompresses and unmarshals a record, verifying the stored
// key matches the requested one.
func decodeRecord(key string, raw []byte) (Entry, bool, error) {
	data, err := zstdDecoder.DecodeAll(raw, nil)
	if err != nil {
		return Entry{}, false, fmt.Errorf("decompress cache record: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache record: %w", err)
	}
	if rec.Key != key {
		return Entry{}, false, nil
	}
	return Entry{Fingerprint: rec.Fingerprint, Value: rec.Value}, true, nil
}
