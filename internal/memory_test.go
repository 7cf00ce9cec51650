package internal

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewMemoryRejectsEmptyContent(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := NewMemory(content, nil); !errors.Is(err, ErrValidation) {
			t.Errorf("NewMemory(%q) error = %v, want ErrValidation", content, err)
		}
	}
}

func TestNewMemoryNormalizesTags(t *testing.T) {
	mem, err := NewMemory("hello", []string{" Work ", "go", "WORK", "", "go"})
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	want := []string{"go", "work"}
	if !reflect.DeepEqual(mem.Tags, want) {
		t.Errorf("tags = %v, want %v", mem.Tags, want)
	}
	if mem.CreatedAt.IsZero() || !mem.CreatedAt.Equal(mem.UpdatedAt) {
		t.Errorf("timestamps not initialized: created=%v updated=%v", mem.CreatedAt, mem.UpdatedAt)
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, []string{}},
		{[]string{"b", "a", "b"}, []string{"a", "b"}},
		{[]string{"  X  ", "x"}, []string{"x"}},
		{[]string{"", "  "}, []string{}},
	}

	for _, tt := range tests {
		if got := NormalizeTags(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("NormalizeTags(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHasAnyTag(t *testing.T) {
	mem := &Memory{Tags: []string{"go", "work"}}

	if !HasAnyTag(mem, nil) {
		t.Error("empty filter should match everything")
	}
	if !HasAnyTag(mem, []string{"work", "other"}) {
		t.Error("overlapping filter should match")
	}
	if HasAnyTag(mem, []string{"other"}) {
		t.Error("disjoint filter should not match")
	}
	if HasAnyTag(&Memory{}, []string{"go"}) {
		t.Error("untagged memory should not match a non-empty filter")
	}
}
