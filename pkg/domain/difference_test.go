package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDifferences(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		additions  int
		deletions  int
		mods       int
		equivalent bool
	}{
		{
			name:       "Empty output",
			output:     "",
			equivalent: true,
		},
		{
			name: "Additions and deletions",
			output: `in function main:
  in block %entry:
    >   %3 = add i32 %1, %2
    <   %3 = add i32 %2, %1
    >   ret i32 %3`,
			additions: 2,
			deletions: 1,
			mods:      1,
		},
		{
			name:       "Modification only",
			output:     "in function foo:\n  in block %1 / %1:",
			mods:       1,
			equivalent: true,
		},
		{
			name:       "Differing function is advisory",
			output:     "function @main differs\n  in block %entry / %entry:\n  note: in function @helper",
			mods:       2,
			equivalent: true,
		},
		{
			name:      "Leading whitespace is ignored",
			output:    "      <  store i32 0, ptr %1",
			deletions: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDifferences(tt.output)
			assert.Equal(t, tt.additions, got.Additions)
			assert.Equal(t, tt.deletions, got.Deletions)
			assert.Equal(t, tt.mods, got.Modifications)
			assert.Equal(t, tt.equivalent, got.Equivalent())
		})
	}
}

func TestRepresentationName(t *testing.T) {
	assert.Equal(t, "a.ll", Representation{Path: "/tmp/x/a.ll"}.Name())
	assert.Equal(t, "<anonymous>", Representation{}.Name())
	assert.True(t, Representation{}.IsZero())
}
