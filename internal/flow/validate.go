package flow

import (
	"fmt"
	"strings"
)

const minFreeTextLen = 25

const (
	msgRequired      = "This field is required."
	msgSelectReason  = "Please select a reason."
	msgVisaRequired  = "Please enter a visa type."
	msgPricePositive = "Enter an amount greater than 0."
)

func msgMinLength(min int) string {
	return fmt.Sprintf("Must be at least %d characters.", min)
}

// finalReasonOptions maps each selectable reason to the follow-up it
// requires: a positive maximum price or at least 25 chars of free text.
var finalReasonOptions = map[string]string{
	"too_expensive":    "price",
	"not_helpful":      "text",
	"not_enough_jobs":  "text",
	"decided_not_move": "text",
	"other":            "text",
}

func guardSurvey(_ *Controller, p *EventPayload) map[string]string {
	msgs := map[string]string{}
	if p.AppsApplied == "" {
		msgs["appsApplied"] = msgRequired
	}
	if p.CompaniesEmailed == "" {
		msgs["companiesEmailed"] = msgRequired
	}
	if p.CompaniesInterviewed == "" {
		msgs["companiesInterviewed"] = msgRequired
	}
	return msgs
}

func guardFinalReason(_ *Controller, p *EventPayload) map[string]string {
	msgs := map[string]string{}
	requires, known := finalReasonOptions[p.Reason]
	if !known {
		msgs["reason"] = msgSelectReason
		return msgs
	}
	switch requires {
	case "price":
		if p.PriceMax == nil || *p.PriceMax <= 0 {
			msgs["priceMax"] = msgPricePositive
		}
	case "text":
		if len(strings.TrimSpace(p.Details)) < minFreeTextLen {
			msgs["details"] = msgMinLength(minFreeTextLen)
		}
	}
	return msgs
}

func guardFoundJobIntro(_ *Controller, p *EventPayload) map[string]string {
	msgs := map[string]string{}
	if p.FoundWithMate != "Yes" && p.FoundWithMate != "No" {
		msgs["foundWithMate"] = msgRequired
	}
	if p.AppsApplied == "" {
		msgs["appsApplied"] = msgRequired
	}
	if p.CompaniesEmailed == "" {
		msgs["companiesEmailed"] = msgRequired
	}
	if p.CompaniesInterviewed == "" {
		msgs["companiesInterviewed"] = msgRequired
	}
	return msgs
}

func guardFoundJobFeedback(_ *Controller, p *EventPayload) map[string]string {
	msgs := map[string]string{}
	if len(strings.TrimSpace(p.Feedback)) < minFreeTextLen {
		msgs["feedback"] = msgMinLength(minFreeTextLen)
	}
	return msgs
}

// guardFoundJobVisa covers both sub-variants. The prompts differ, the rule
// does not: a yes/no choice is required, and a visa type is required unless
// the account found the job through the product and the company has no
// lawyer (declining the visa help).
func guardFoundJobVisa(c *Controller, p *EventPayload) map[string]string {
	msgs := map[string]string{}
	if p.HasCompanyLawyer == nil {
		msgs["hasCompanyLawyer"] = msgRequired
		return msgs
	}
	visaRequired := true
	if c.fs.Answers.FoundJob.FoundWithMate == "Yes" && !*p.HasCompanyLawyer {
		visaRequired = false
	}
	if visaRequired && strings.TrimSpace(p.Visa) == "" {
		msgs["visa"] = msgVisaRequired
	}
	return msgs
}
