package credential

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)
	dotRunRegex = regexp.MustCompile(`\.{2,}`)
)

// NormalizeEmail trims, lowercases, strips control characters, and collapses
// consecutive dots in the local part. The password is never touched by any
// sanitization path.
func NormalizeEmail(email string) string {
	email = stripControl(strings.TrimSpace(email))
	email = strings.ToLower(email)

	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	local = dotRunRegex.ReplaceAllString(local, ".")
	local = strings.Trim(local, ".")
	return local + "@" + domain
}

// NormalizeName trims and collapses internal whitespace in a display name.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(stripControl(name)), " ")
}

// IsValidEmail reports whether the (already normalized) email matches the
// standard address shape.
func IsValidEmail(email string) bool {
	return email != "" && len(email) <= 254 && emailRegex.MatchString(email)
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
