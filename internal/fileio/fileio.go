// internal/fileio/fileio.go
// Package fileio reads source documents and JSONL data files.
package fileio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// scanBufferSize accommodates very long result lines (a built context echo
// can run to hundreds of kilobytes).
const scanBufferSize = 16 * 1024 * 1024

// ReadNovel reads the full source document as UTF-8 text.
func ReadNovel(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read novel %s: %w", path, err)
	}
	return string(data), nil
}

// ReadJSONL reads a JSONL file, splitting off the optional leading metadata
// line. A first line counts as metadata when it carries a "metadata" or
// "novel_summary" key and no "position" field; a line with a position is
// always a data record even if it carries metadata-like fields.
func ReadJSONL(path string) (meta json.RawMessage, lines []json.RawMessage, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)

	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		raw := json.RawMessage([]byte(line))
		if first {
			first = false
			if isMetadataLine(raw) {
				meta = raw
				continue
			}
		}
		lines = append(lines, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return meta, lines, nil
}

func isMetadataLine(raw json.RawMessage) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	if _, ok := probe["position"]; ok {
		return false
	}
	if _, ok := probe["metadata"]; ok {
		return true
	}
	if _, ok := probe["novel_summary"]; ok {
		return true
	}
	return false
}

// WriteJSONL writes an optional metadata line followed by one JSON record
// per item. Parent directories are created as needed.
func WriteJSONL(path string, meta any, items []any) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if meta != nil {
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("write metadata line: %w", err)
		}
	}
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	return w.Flush()
}
