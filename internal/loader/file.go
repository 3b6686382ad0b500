package loader

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"MarketLens/internal/model"
)

// Token identifies a file version cheaply, without reading its content.
type Token struct {
	ModTime time.Time
	Size    int64
}

// File is a loaded price table together with its identity.
type File struct {
	Path        string
	Rows        []model.RawRow
	Fingerprint string // hex SHA-256 of the raw bytes
	Token       Token
}

// Stat returns the current token of path.
func Stat(path string) (Token, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Token{}, err
	}
	return Token{ModTime: fi.ModTime(), Size: fi.Size()}, nil
}

// Fingerprint hashes data the way LoadFile does.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LoadFile reads and parses the table at path.
func LoadFile(path string) (*File, error) {
	tok, err := Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rows, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &File{
		Path:        path,
		Rows:        rows,
		Fingerprint: Fingerprint(data),
		Token:       tok,
	}, nil
}

// WriteFile replaces the table at path atomically.
func WriteFile(path string, rows []model.RawRow) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".marketdata-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
