package vfs

import (
	"strings"
	"unicode/utf8"
)

// maxNameLength bounds a single path segment, not a whole path.
const maxNameLength = 255

var forbiddenNameChars = []rune{'/', '\\', ':', '*', '?', '"', '<', '>', '|', 0}

var reservedNames = map[string]struct{}{
	".": {}, "..": {},
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// ValidateName checks a candidate leaf name against the naming rules.
// It applies only to names being created; resolution of existing paths
// never re-validates.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errorf(StatusInvalidName, "name cannot be empty")
	}

	for _, c := range forbiddenNameChars {
		if strings.ContainsRune(name, c) {
			return errorf(StatusInvalidName, "name contains forbidden character %q", c)
		}
	}

	if _, reserved := reservedNames[strings.ToUpper(name)]; reserved {
		return errorf(StatusInvalidName, "'%s' is a reserved name", name)
	}

	if utf8.RuneCountInString(name) > maxNameLength {
		return errorf(StatusInvalidName, "name is too long (maximum %d characters)", maxNameLength)
	}

	if strings.HasSuffix(name, ".") || strings.HasSuffix(name, " ") {
		return errorf(StatusInvalidName, "name cannot end with a dot or space")
	}

	return nil
}
