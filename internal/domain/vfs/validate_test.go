package vfs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestValidateName tests the naming rules table
func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple file", "readme.txt", false},
		{"simple directory", "docs", false},
		{"unicode", "café.txt", false},
		{"leading space kept", " notes.txt", false},
		{"dot inside", "archive.tar.gz", false},
		{"max length", strings.Repeat("a", 255), false},

		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"colon", "a:b", true},
		{"asterisk", "a*b", true},
		{"question mark", "a?b", true},
		{"double quote", `a"b`, true},
		{"less than", "a<b", true},
		{"greater than", "a>b", true},
		{"pipe", "a|b", true},
		{"null byte", "a\x00b", true},
		{"dot", ".", true},
		{"dot dot", "..", true},
		{"reserved upper", "CON", true},
		{"reserved lower", "con", true},
		{"reserved mixed", "Con", true},
		{"reserved prn", "prn", true},
		{"reserved aux", "AUX", true},
		{"reserved nul", "nul", true},
		{"reserved com1", "com1", true},
		{"reserved com9", "COM9", true},
		{"reserved lpt1", "lpt1", true},
		{"reserved lpt9", "LPT9", true},
		{"too long", strings.Repeat("a", 256), true},
		{"trailing dot", "notes.", true},
		{"trailing space", "notes ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, StatusInvalidName, StatusOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestValidateNameNotReservedPrefix tests that reserved names only match whole
func TestValidateNameNotReservedPrefix(t *testing.T) {
	assert.NoError(t, ValidateName("CONFIG"))
	assert.NoError(t, ValidateName("console.log"))
	assert.NoError(t, ValidateName("com10"))
	assert.NoError(t, ValidateName("lpt10"))
}

// TestValidateNameCountsRunes tests that length limits count characters, not bytes
func TestValidateNameCountsRunes(t *testing.T) {
	// 255 two-byte runes exceed 255 bytes but stay within the limit.
	assert.NoError(t, ValidateName(strings.Repeat("é", 255)))
	assert.Error(t, ValidateName(strings.Repeat("é", 256)))
}
