// Package snapshot keeps static copies of the case list: a fallback bundled
// into the binary and dated files written by the snapshot command.
package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/model"
)

const (
	filePrefix = "cases-"
	fileSuffix = ".json"
	timeLayout = "20060102-150405"
)

//go:embed bundled/cases-fallback.json
var bundled []byte

// Bundled returns the fallback case list compiled into the binary.
func Bundled() ([]model.Case, error) {
	return decode(bundled)
}

// Store reads and writes dated snapshot files in one directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns the snapshot file name for t, e.g.
// cases-20250314-093000.json. Names sort in time order.
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(timeLayout) + fileSuffix
}

// LatestPath returns the path of the newest snapshot file. It wraps
// apperr.ErrNotFound when the directory is missing or holds none.
func (s *Store) LatestPath() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: snapshot dir %s", apperr.ErrNotFound, s.dir)
		}
		return "", fmt.Errorf("read snapshot dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no snapshot in %s", apperr.ErrNotFound, s.dir)
	}
	sort.Strings(names)
	return filepath.Join(s.dir, names[len(names)-1]), nil
}

// Latest loads the newest snapshot file.
func (s *Store) Latest() ([]model.Case, string, error) {
	path, err := s.LatestPath()
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read snapshot: %w", err)
	}
	cases, err := decode(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cases, path, nil
}

// Write stores cases as a new snapshot taken at t and returns its path.
// The file is written to a temp name first so readers never see a partial
// snapshot.
func (s *Store) Write(cases []model.Case, t time.Time) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	if cases == nil {
		cases = []model.Case{}
	}
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	path := filepath.Join(s.dir, FileName(t))
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename snapshot: %w", err)
	}
	return path, nil
}

func decode(data []byte) ([]model.Case, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", apperr.ErrMalformedPayload)
	}
	var cases []model.Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedPayload, err)
	}
	if cases == nil {
		cases = []model.Case{}
	}
	return cases, nil
}
