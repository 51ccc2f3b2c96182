package normalization

import (
  "strings"
)

// ParseInputString trims and lowercases user-provided identifiers (emails,
// provider tags). Message content is never run through this.
func ParseInputString(input string) string {
  return strings.ToLower(strings.TrimSpace(input))
}

// ParseFreeText trims whitespace only, preserving case and diacritics.
func ParseFreeText(input string) string {
  return strings.TrimSpace(input)
}
