package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/medisearch/casedex/internal/logger"
)

// RawCase is one corpus case after merging all JSONL records sharing a
// case id. Fields holds the merged JSON object; nested sections (Case,
// Topic, Description) stay as maps.
type RawCase struct {
	ID     string
	Fields map[string]any
}

// section returns a nested JSON object by key, or an empty map.
func (rc RawCase) section(name string) map[string]any {
	if m, ok := rc.Fields[name].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// str returns a top-level string field, or "".
func (rc RawCase) str(key string) string {
	if s, ok := rc.Fields[key].(string); ok {
		return s
	}
	return ""
}

// sectionStr returns a string field from a nested section, or "".
func sectionStr(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// LoadCorpus reads a JSONL corpus file and merges records per case id.
// Later records for the same id overwrite earlier fields. The returned
// slice preserves first-seen order. Malformed lines are logged and
// skipped; only an unreadable file fails the load.
func LoadCorpus(ctx context.Context, path string) ([]RawCase, error) {
	log := logger.FromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	byID := make(map[string]map[string]any)
	var order []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			log.Warn("malformed corpus line skipped",
				zap.Int("line", line), zap.Error(err))
			continue
		}
		id, _ := rec["U_id"].(string)
		if id == "" {
			continue
		}
		if _, ok := byID[id]; !ok {
			byID[id] = make(map[string]any)
			order = append(order, id)
		}
		for k, v := range rec {
			byID[id][k] = v
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	out := make([]RawCase, 0, len(order))
	for _, id := range order {
		out = append(out, RawCase{ID: id, Fields: byID[id]})
	}
	return out, nil
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// ListImages maps case ids to image paths in a directory. Filenames are
// expected as <id>_*.<ext>; the listing is sorted so that when a case has
// several images the lexicographically last one wins.
func ListImages(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read images dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	byID := make(map[string]string, len(names))
	for _, name := range names {
		id, _, found := strings.Cut(name, "_")
		if !found || id == "" {
			continue
		}
		byID[id] = filepath.Join(dir, name)
	}
	return byID, nil
}
