package dto

import "strings"

// FlowEventRequest advances the cancellation interview by one event. Only
// the fields the target stage needs have to be set.
type FlowEventRequest struct {
	Event string `json:"event" validate:"required,oneof=found_job still_looking accept decline back continue next submit complete confirm finish close"`

	FoundWithMate        string `json:"found_with_mate" validate:"omitempty,oneof=Yes No"`
	AppsApplied          string `json:"apps_applied" validate:"omitempty,max=500"`
	CompaniesEmailed     string `json:"companies_emailed" validate:"omitempty,max=500"`
	CompaniesInterviewed string `json:"companies_interviewed" validate:"omitempty,max=500"`
	Feedback             string `json:"feedback" validate:"omitempty,max=1000"`
	HasCompanyLawyer     *bool  `json:"has_company_lawyer"`
	Visa                 string `json:"visa" validate:"omitempty,max=100"`

	Reason   string   `json:"reason" validate:"omitempty,max=1000"`
	Details  string   `json:"details" validate:"omitempty,max=1000"`
	PriceMax *float64 `json:"price_max" validate:"omitempty,gt=0"`
}

// Sanitize runs the defensive boundary pass over free-text fields before
// validation: trim, strip angle brackets, clamp length. Structured fields
// are left for the validator to reject outright.
func (r *FlowEventRequest) Sanitize() {
	r.Feedback = sanitizeText(r.Feedback)
	r.Visa = sanitizeText(r.Visa)
	r.Details = sanitizeText(r.Details)
}

func sanitizeText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	if len(s) > 1000 {
		s = s[:1000]
	}
	return s
}
