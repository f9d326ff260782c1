package upload

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	unsafeChars         = regexp.MustCompile(`[^-_A-Za-z0-9+.]+`)
	repeatedDashes      = regexp.MustCompile(`-{2,}`)
	repeatedUnderscores = regexp.MustCompile(`_{2,}`)
	leadingJunk         = regexp.MustCompile(`^[-_.]+`)
)

// SanitizeFilename makes a name safe for storage keys and URLs: whitespace
// becomes dashes, anything outside [-_A-Za-z0-9+.] is dropped, runs of
// dashes or underscores collapse and leading separators are stripped.
func SanitizeFilename(name string) string {
	out := strings.Join(strings.Fields(name), "-")
	out = unsafeChars.ReplaceAllString(out, "")
	out = repeatedUnderscores.ReplaceAllString(out, "_")
	out = repeatedDashes.ReplaceAllString(out, "-")
	out = leadingJunk.ReplaceAllString(out, "")
	return out
}

// ValidRenamePattern guards pattern configuration. A pattern with neither a
// literal dot nor a {name} placeholder would produce extensionless files.
func ValidRenamePattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	if !strings.Contains(pattern, ".") && !strings.Contains(pattern, "{name}") {
		return fmt.Errorf("pattern %q should contain an extension", pattern)
	}
	return nil
}

// ChangeFilenameWithPattern renders a rename pattern for an uploaded file.
// Recognized placeholders: {name}, {basename} (both the full original name),
// {filename} (name without extension), {extension}, {timestamp}, {date},
// {datetime} and {field} (the logical field name). The result is passed
// through SanitizeFilename.
func ChangeFilenameWithPattern(originalName, pattern, field string, now time.Time) string {
	base := path.Base(originalName)
	ext := strings.TrimPrefix(path.Ext(base), ".")
	stem := strings.TrimSuffix(base, path.Ext(base))

	r := strings.NewReplacer(
		"{name}", base,
		"{basename}", base,
		"{filename}", stem,
		"{extension}", ext,
		"{timestamp}", fmt.Sprintf("%d", now.Unix()),
		"{date}", now.Format("20060102"),
		"{datetime}", now.Format("20060102_150405"),
		"{field}", field,
	)
	return SanitizeFilename(r.Replace(pattern))
}
