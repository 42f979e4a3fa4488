package gamestate

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

// PackMagic prefixes packed save blobs. The trailing digit is the format
// version.
const PackMagic = "RPSAVE1:"

// Snapshot errors.
var (
	ErrBadMagic         = errors.New("not a packed save")
	ErrChecksumMismatch = errors.New("save checksum mismatch")
)

// Serialize encodes the full world as JSON. Only maps, lists and primitives
// appear in the output.
func Serialize(s *WorldState) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize world state: %w", err)
	}
	return data, nil
}

// Deserialize decodes a JSON snapshot. Unknown fields are rejected so a
// save from an incompatible build fails loudly rather than loading partially.
func Deserialize(data []byte) (*WorldState, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s WorldState
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse world state: %w", err)
	}
	return &s, nil
}

// Pack produces a portable text blob: magic, then base64 of the blake3
// checksum of the JSON followed by the lz4-compressed JSON.
func Pack(s *WorldState) (string, error) {
	payload, err := Serialize(s)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(payload)

	var buf bytes.Buffer
	buf.Write(sum[:])
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return "", fmt.Errorf("failed to compress save: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to compress save: %w", err)
	}
	return PackMagic + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Unpack reverses Pack, verifying the checksum before decoding.
func Unpack(blob string) (*WorldState, error) {
	blob = strings.TrimSpace(blob)
	if !strings.HasPrefix(blob, PackMagic) {
		return nil, ErrBadMagic
	}
	raw, err := base64.StdEncoding.DecodeString(blob[len(PackMagic):])
	if err != nil {
		return nil, fmt.Errorf("failed to decode save: %w", err)
	}
	if len(raw) < 32 {
		return nil, fmt.Errorf("save too short: %w", ErrChecksumMismatch)
	}
	var want [32]byte
	copy(want[:], raw[:32])

	payload, err := io.ReadAll(lz4.NewReader(bytes.NewReader(raw[32:])))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress save: %w", err)
	}
	if blake3.Sum256(payload) != want {
		return nil, ErrChecksumMismatch
	}
	return Deserialize(payload)
}

// SaveFile writes the JSON snapshot to disk.
func SaveFile(s *WorldState, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize world state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write save file: %w", err)
	}
	return nil
}

// LoadFile reads a JSON snapshot from disk.
func LoadFile(path string) (*WorldState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}
	return Deserialize(data)
}
