package flow

import (
	"github.com/google/uuid"

	"cancelflow-be/internal/entity"
)

// Answer values for the "yes I found a job" path.
type FoundJobAnswers struct {
	FoundWithMate        string `json:"foundWithMate"`
	AppsApplied          string `json:"appsApplied"`
	CompaniesEmailed     string `json:"companiesEmailed"`
	CompaniesInterviewed string `json:"companiesInterviewed"`
	Feedback             string `json:"feedback"`
	HasCompanyLawyer     *bool  `json:"hasCompanyLawyer"`
	Visa                 string `json:"visa"`
}

// SurveyAnswers are the three multiple-choice pills on the "still looking"
// reason step.
type SurveyAnswers struct {
	AppsApplied          string `json:"appsApplied"`
	CompaniesEmailed     string `json:"companiesEmailed"`
	CompaniesInterviewed string `json:"companiesInterviewed"`
}

// FinalAnswers carry the selected cancellation reason plus its
// reason-dependent follow-up.
type FinalAnswers struct {
	Reason   string   `json:"reason"`
	Details  string   `json:"details,omitempty"`
	PriceMax *float64 `json:"priceMax,omitempty"`
}

type Answers struct {
	FoundJob FoundJobAnswers `json:"foundJob"`
	Survey   SurveyAnswers   `json:"survey"`
	Final    FinalAnswers    `json:"final"`
}

// FlowSession is the whole mutable flow state: stage, accumulated answers,
// sticky bucket and the saw-downsell flag, threaded through every
// transition so nothing lives in ambient globals.
type FlowSession struct {
	Stage          Stage
	Bucket         entity.ExperimentBucket
	BucketResolved bool
	SawDownsell    bool
	Answers        Answers

	RecordID       uuid.UUID
	HasRecord      bool
	SubscriptionID uuid.UUID
}

// EventPayload is the union of stage-local inputs. Each transition's guard
// reads only the fields it needs.
type EventPayload struct {
	FoundWithMate        string
	AppsApplied          string
	CompaniesEmailed     string
	CompaniesInterviewed string
	Feedback             string
	HasCompanyLawyer     *bool
	Visa                 string

	Reason   string
	Details  string
	PriceMax *float64
}
