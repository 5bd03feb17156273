package util

import "strings"

// SanitizePostgresText strips invalid UTF-8 and NUL bytes, which postgres
// rejects in text columns. Web-scraped document content regularly needs this.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}
