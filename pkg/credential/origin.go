package credential

import "strings"

// ValidateOrigin reports whether the request origin is acceptable.
// With no configured allowlist every origin passes, so the check is a
// callable no-op when the feature is disabled.
func (v *Validator) ValidateOrigin(origin string) bool {
	if len(v.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
	for _, allowed := range v.cfg.AllowedOrigins {
		if strings.EqualFold(origin, strings.TrimSuffix(strings.TrimSpace(allowed), "/")) {
			return true
		}
	}
	return false
}

// ValidateUserAgent reports whether the user agent is acceptable. Matching
// is case-insensitive substring against the configured blocklist; an empty
// blocklist accepts everything.
func (v *Validator) ValidateUserAgent(ua string) bool {
	if len(v.cfg.BlockedUserAgents) == 0 {
		return true
	}
	lower := strings.ToLower(ua)
	for _, blocked := range v.cfg.BlockedUserAgents {
		if blocked != "" && strings.Contains(lower, strings.ToLower(blocked)) {
			return false
		}
	}
	return true
}
