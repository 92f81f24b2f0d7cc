// internal/tester/parser_test.go
package tester

import (
	"reflect"
	"testing"
)

func TestParseAnswerDirectJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		response   string
		wantKeys   []string
		wantStatus ParsingStatus
	}{
		{name: "single", response: `{"answer": ["a"]}`, wantKeys: []string{"a"}, wantStatus: StatusSuccess},
		{name: "multi", response: `{"answer": ["a", "c"]}`, wantKeys: []string{"a", "c"}, wantStatus: StatusSuccess},
		{name: "bare string promoted", response: `{"answer": "b"}`, wantKeys: []string{"b"}, wantStatus: StatusSuccess},
		{name: "surrounding whitespace", response: "  {\"answer\": [\"d\"]}\n", wantKeys: []string{"d"}, wantStatus: StatusSuccess},
		{name: "empty list", response: `{"answer": []}`, wantKeys: []string{}, wantStatus: StatusSuccess},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			keys, status := ParseAnswer(tt.response)
			if status != tt.wantStatus {
				t.Fatalf("status = %s, want %s", status, tt.wantStatus)
			}
			if len(keys) != len(tt.wantKeys) {
				t.Fatalf("keys = %v, want %v", keys, tt.wantKeys)
			}
			for i := range keys {
				if keys[i] != tt.wantKeys[i] {
					t.Fatalf("keys = %v, want %v", keys, tt.wantKeys)
				}
			}
		})
	}
}

func TestParseAnswerEmbeddedJSON(t *testing.T) {
	t.Parallel()

	keys, status := ParseAnswer(`Here is my answer: {"answer": ["b", "c"]} Hope this helps!`)
	if status != StatusRegexExtracted {
		t.Fatalf("status = %s, want regex_extracted", status)
	}
	if !reflect.DeepEqual(keys, []string{"b", "c"}) {
		t.Fatalf("keys = %v, want [b c]", keys)
	}
}

func TestParseAnswerNestedBraces(t *testing.T) {
	t.Parallel()

	keys, status := ParseAnswer(`reasoning {"notes": {"why": "x"}, "answer": ["a"]} done`)
	if status != StatusRegexExtracted {
		t.Fatalf("status = %s, want regex_extracted", status)
	}
	if !reflect.DeepEqual(keys, []string{"a"}) {
		t.Fatalf("keys = %v, want [a]", keys)
	}
}

func TestParseAnswerAssertedLetter(t *testing.T) {
	t.Parallel()

	keys, status := ParseAnswer("After reading the text carefully, the answer is (a).")
	if status != StatusRegexExtracted {
		t.Fatalf("status = %s, want regex_extracted", status)
	}
	if !reflect.DeepEqual(keys, []string{"a"}) {
		t.Fatalf("keys = %v, want [a]", keys)
	}
}

func TestParseAnswerAmbiguousLettersFail(t *testing.T) {
	t.Parallel()

	_, status := ParseAnswer(`It could be "a" or maybe "b", hard to tell.`)
	if status != StatusParsingError {
		t.Fatalf("status = %s, want parsing_error for ambiguous reply", status)
	}
}

func TestParseAnswerUnparseable(t *testing.T) {
	t.Parallel()

	for _, response := range []string{"", "   ", "I have no idea what you mean"} {
		keys, status := ParseAnswer(response)
		if status != StatusParsingError {
			t.Fatalf("ParseAnswer(%q) status = %s, want parsing_error", response, status)
		}
		if len(keys) != 0 {
			t.Fatalf("ParseAnswer(%q) keys = %v, want empty", response, keys)
		}
	}
}

func TestNormalizeAnswer(t *testing.T) {
	t.Parallel()

	choices := map[string]string{"a": "1", "b": "2", "c": "3"}

	got := NormalizeAnswer([]string{" C ", "A", "a", "z"}, choices)
	want := []string{"a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeAnswer = %v, want %v", got, want)
	}
}

func TestIsRefusal(t *testing.T) {
	t.Parallel()

	if !IsRefusal("I cannot answer this question based on the text.") {
		t.Fatal("expected refusal detection")
	}
	if IsRefusal(`{"answer": ["a"]}`) {
		t.Fatal("valid answer misdetected as refusal")
	}
}
