// internal/question/loader_test.go
package question

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSet(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write set: %v", err)
	}
	return path
}

func TestLoadSetWithMetadata(t *testing.T) {
	t.Parallel()

	path := writeSet(t, `{"metadata":{"novel_path":"n.txt","novel_summary":"the summary"}}
{"question":"q1","question_type":"single_choice","choice":{"a":"1","b":"2"},"answer":["a"],"position":{"start_pos":10,"end_pos":20}}
{"question":"q2","question_type":"single_choice","choice":{"a":"1","b":"2"},"answer":["b"],"position":{"start_pos":30,"end_pos":40}}
`)

	set, err := LoadSet(path)
	if err != nil {
		t.Fatalf("LoadSet error: %v", err)
	}
	if len(set.Questions) != 2 {
		t.Fatalf("loaded %d questions, want 2", len(set.Questions))
	}
	if set.NovelSummary() != "the summary" {
		t.Fatalf("NovelSummary = %q, want nested summary", set.NovelSummary())
	}
	if set.Skipped != 0 {
		t.Fatalf("skipped = %d, want 0", set.Skipped)
	}
}

func TestLoadSetTopLevelSummary(t *testing.T) {
	t.Parallel()

	path := writeSet(t, `{"novel_summary":"top level"}
{"question":"q1","question_type":"single_choice","choice":{"a":"1","b":"2"},"answer":["a"],"position":{"start_pos":10,"end_pos":20}}
`)

	set, err := LoadSet(path)
	if err != nil {
		t.Fatalf("LoadSet error: %v", err)
	}
	if set.NovelSummary() != "top level" {
		t.Fatalf("NovelSummary = %q", set.NovelSummary())
	}
}

func TestLoadSetSkipsInvalidLines(t *testing.T) {
	t.Parallel()

	path := writeSet(t, `{"question":"ok","question_type":"single_choice","choice":{"a":"1","b":"2"},"answer":["a"],"position":{"start_pos":10,"end_pos":20}}
not even json
{"question":"bad","question_type":"single_choice","choice":{"a":"1","b":"2"},"answer":["z"],"position":{"start_pos":10,"end_pos":20}}
{"question":"ok2","question_type":"single_choice","choice":{"a":"1","b":"2"},"answer":["b"],"position":{"start_pos":30,"end_pos":40}}
`)

	set, err := LoadSet(path)
	if err != nil {
		t.Fatalf("LoadSet error: %v", err)
	}
	if len(set.Questions) != 2 {
		t.Fatalf("loaded %d questions, want 2", len(set.Questions))
	}
	if set.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", set.Skipped)
	}
}

func TestLoadSetWithoutMetadata(t *testing.T) {
	t.Parallel()

	path := writeSet(t, `{"question":"q1","question_type":"single_choice","choice":{"a":"1","b":"2"},"answer":["a"],"position":{"start_pos":10,"end_pos":20}}
`)

	set, err := LoadSet(path)
	if err != nil {
		t.Fatalf("LoadSet error: %v", err)
	}
	if set.Meta != nil {
		t.Fatal("expected nil metadata")
	}
	if len(set.Questions) != 1 {
		t.Fatalf("loaded %d questions, want 1", len(set.Questions))
	}
}
