package flow

import (
	"fmt"
	"strings"
)

// openingReason is the placeholder a fresh record shell carries until the
// interview produces a real one.
const openingReason = "Cancel flow opened"

const maxReasonLen = 1000

// serializeFoundJob flattens the accumulated left-path answers into a
// single reason string that satisfies the store's reason grammar.
func serializeFoundJob(a FoundJobAnswers) string {
	lawyer := "unanswered"
	if a.HasCompanyLawyer != nil {
		if *a.HasCompanyLawyer {
			lawyer = "yes"
		} else {
			lawyer = "no"
		}
	}
	visa := a.Visa
	if visa == "" {
		visa = "none"
	}
	s := fmt.Sprintf(
		"found_job(foundWithMate %s, appsApplied %s, companiesEmailed %s, companiesInterviewed %s, hasCompanyLawyer %s, visa %s, feedback %s)",
		a.FoundWithMate, a.AppsApplied, a.CompaniesEmailed, a.CompaniesInterviewed, lawyer, visa, a.Feedback,
	)
	return clampReason(sanitizeReason(s))
}

// sanitizeReason is the defensive boundary pass: characters outside the
// reason grammar become spaces instead of failing a record the user
// already finished.
func sanitizeReason(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(" \t\n-_.,!?()", r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func clampReason(s string) string {
	if len(s) > maxReasonLen {
		return s[:maxReasonLen]
	}
	return s
}
