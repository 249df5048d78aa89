package credential

import (
	"regexp"
	"strings"
)

var (
	uppercaseRegex   = regexp.MustCompile(`[A-Z]`)
	lowercaseRegex   = regexp.MustCompile(`[a-z]`)
	digitRegex       = regexp.MustCompile(`[0-9]`)
	specialCharRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?~` + "`" + `]`)
)

// PasswordResult carries the outcome of a strength evaluation.
// Score ranges 0 (unusable) to 4 (strong). Valid requires the configured
// minimum score and no common-password dictionary match.
type PasswordResult struct {
	Valid    bool
	Score    int
	Feedback []string
}

// ValidatePassword scores the password against length, character class,
// dictionary, and pattern checks. The password itself is never modified.
func (v *Validator) ValidatePassword(password string) PasswordResult {
	res := PasswordResult{}

	if password == "" {
		res.Feedback = append(res.Feedback, "password is required")
		return res
	}
	if len(password) > v.cfg.MaxPasswordLength {
		res.Feedback = append(res.Feedback, "password is too long")
		return res
	}

	if isCommonPassword(password) {
		res.Feedback = append(res.Feedback, "password is too common")
		return res
	}

	score := 0
	if len(password) >= v.cfg.MinPasswordLength {
		score++
	} else {
		res.Feedback = append(res.Feedback, "password is too short")
	}
	if len(password) >= 12 {
		score++
	}

	classes := charClasses(password)
	switch {
	case classes >= 4:
		score += 2
	case classes == 3:
		score++
	default:
		res.Feedback = append(res.Feedback, "mix upper and lower case letters, digits, and symbols")
	}

	if hasRepeatRun(password, 3) {
		score--
		res.Feedback = append(res.Feedback, "avoid repeated characters")
	}
	if hasSequentialRun(password, 4) {
		score--
		res.Feedback = append(res.Feedback, "avoid sequential characters")
	}

	score = min(max(score, 0), 4)
	res.Score = score
	res.Valid = score >= v.cfg.MinPasswordScore && len(password) >= v.cfg.MinPasswordLength
	return res
}

func charClasses(password string) int {
	classes := 0
	if uppercaseRegex.MatchString(password) {
		classes++
	}
	if lowercaseRegex.MatchString(password) {
		classes++
	}
	if digitRegex.MatchString(password) {
		classes++
	}
	if specialCharRegex.MatchString(password) {
		classes++
	}
	return classes
}

func isCommonPassword(password string) bool {
	return commonPasswords[strings.ToLower(password)]
}

// hasRepeatRun detects n or more identical consecutive characters,
// like "aaa" or "111".
func hasRepeatRun(password string, n int) bool {
	if n < 2 {
		return false
	}
	run := 0
	var prev rune
	for i, r := range password {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

// hasSequentialRun detects runs like "abcd" or "4321" of at least n
// characters in either direction.
func hasSequentialRun(password string, n int) bool {
	if n < 2 || len(password) < n {
		return false
	}
	lower := strings.ToLower(password)
	asc, desc := 1, 1
	for i := 1; i < len(lower); i++ {
		switch lower[i] - lower[i-1] {
		case 1:
			asc++
			desc = 1
		case 0xff: // previous byte + (-1)
			desc++
			asc = 1
		default:
			asc, desc = 1, 1
		}
		if asc >= n || desc >= n {
			return true
		}
	}
	return false
}
