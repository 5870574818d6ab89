package camera

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FolderSource yields the image files of a directory in name order. Useful
// for tests and for re-processing recorded frames.
type FolderSource struct {
	dir   string
	files []string
	pos   int
	seq   int
}

// NewFolderSource lists the supported image files in dir.
func NewFolderSource(dir string) (*FolderSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read frame directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isImageFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	return &FolderSource{dir: dir, files: files}, nil
}

// isImageFile checks if a file has a supported image extension.
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".bmp":
		return true
	}
	return false
}

// Name identifies the source in records and logs.
func (s *FolderSource) Name() string {
	return "folder"
}

// Len returns the number of frames the source will yield.
func (s *FolderSource) Len() int {
	return len(s.files)
}

// Next returns the next file's content, ErrSourceExhausted after the last one.
func (s *FolderSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.pos >= len(s.files) {
		return Frame{}, ErrSourceExhausted
	}

	path := s.files[s.pos]
	s.pos++

	data, err := os.ReadFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("could not read frame file %s: %w", path, err)
	}

	s.seq++
	return Frame{Data: data, Seq: s.seq, TakenAt: time.Now()}, nil
}

// Close is a no-op for folder sources.
func (s *FolderSource) Close() error {
	return nil
}
