// Package sanitize provides input cleanup helpers for user-supplied values.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	emailDangerous   = regexp.MustCompile(`[<>;\\]`)
	controlChars     = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	filenameReserved = regexp.MustCompile(`[/\\]`)
)

// Email normalizes and sanitizes an email address
func Email(email string) string {
	email = strings.TrimSpace(email)
	email = strings.ToLower(email)
	return emailDangerous.ReplaceAllString(email, "")
}

// Filename strips path traversal attempts and control characters from a
// user-supplied file name. Storage keys are never derived from this value;
// it is only used for display and download headers.
func Filename(filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, "..", "")
	filename = filenameReserved.ReplaceAllString(filename, "")
	return controlChars.ReplaceAllString(filename, "")
}

// HeaderFilename escapes a file name for use inside a quoted
// Content-Disposition value
func HeaderFilename(filename string) string {
	return strings.ReplaceAll(Filename(filename), `"`, `\"`)
}
