// Package flow sequences the cancellation interview. The stage set is a
// closed enum and the transitions live in an explicit table keyed by
// (stage, event), so an event outside the table can never move the flow.
package flow

import (
	"errors"
	"fmt"
	"strings"

	"cancelflow-be/internal/entity"
	"cancelflow-be/internal/pkg/logger"
	"cancelflow-be/internal/session"
	"cancelflow-be/internal/store"

	"github.com/google/uuid"
)

// ErrFlowNotOpen is returned when an event arrives before Open.
var ErrFlowNotOpen = errors.New("cancellation flow is not open")

// Tracker receives one action per transition for analytics.
type Tracker interface {
	Track(action string, details map[string]interface{})
}

type Controller struct {
	store   *store.Store
	session *session.Session
	tracker Tracker
	log     logger.ILogger

	// forceDownsell overrides the bucket branch while testing the A/B split.
	forceDownsell bool

	fs   FlowSession
	open bool
}

func NewController(st *store.Store, sess *session.Session, tracker Tracker, log logger.ILogger, forceDownsell bool) *Controller {
	return &Controller{
		store:         st,
		session:       sess,
		tracker:       tracker,
		log:           log,
		forceDownsell: forceDownsell,
		fs:            FlowSession{Stage: StageInitial},
	}
}

// Result is what the UI layer renders after every call: the current stage,
// the accumulated answers, the resolved bucket and, for a failed guard,
// field-keyed validation messages.
type Result struct {
	Stage    Stage             `json:"stage"`
	Closed   bool              `json:"closed"`
	Bucket   string            `json:"bucket,omitempty"`
	Messages map[string]string `json:"messages,omitempty"`
	Answers  Answers           `json:"answers"`
}

type transitionKey struct {
	stage Stage
	event Event
}

// A transition moves to a static target (to) or a computed one (resolve),
// after its guard passes and its side effect succeeds. closes ends the
// flow instead of advancing.
type transition struct {
	to      Stage
	resolve func(c *Controller) Stage
	guard   func(c *Controller, p *EventPayload) map[string]string
	effect  func(c *Controller, p *EventPayload) error
	closes  bool
}

var transitions = map[transitionKey]transition{
	{StageInitial, EventFoundJob}:     {to: StageFoundJobIntro, effect: (*Controller).effectFoundJob},
	{StageInitial, EventStillLooking}: {resolve: (*Controller).resolveStillLooking, effect: (*Controller).effectStillLooking},

	{StageDownsell, EventAccept}:  {to: StageRoles, effect: (*Controller).effectDownsellAccept},
	{StageDownsell, EventDecline}: {to: StageReason, effect: (*Controller).effectDownsellDecline},
	{StageDownsell, EventBack}:    {to: StageInitial},

	{StageRoles, EventContinue}: {closes: true},

	{StageReason, EventNext}: {to: StageFinalReason, guard: guardSurvey, effect: (*Controller).effectSurvey},
	{StageReason, EventBack}: {resolve: (*Controller).resolveReasonBack},

	{StageFinalReason, EventSubmit}: {to: StageDone, guard: guardFinalReason, effect: (*Controller).effectFinalSubmit},
	{StageFinalReason, EventBack}:   {to: StageReason},

	{StageDone, EventConfirm}: {closes: true},

	{StageFoundJobIntro, EventNext}:    {to: StageFoundJobFeedback, guard: guardFoundJobIntro, effect: (*Controller).effectFoundJobIntro},
	{StageFoundJobFeedback, EventNext}: {to: StageFoundJobVisa, guard: guardFoundJobFeedback, effect: (*Controller).effectFoundJobFeedback},
	{StageFoundJobVisa, EventComplete}: {to: StageFoundJobDone, guard: guardFoundJobVisa, effect: (*Controller).effectFoundJobComplete},

	{StageFoundJobDone, EventFinish}: {closes: true},
}

// Open resets the interview to the entry stage. The cached bucket survives
// so a re-opened flow never re-rolls the experiment.
func (c *Controller) Open() (*Result, error) {
	if _, err := c.session.Context(); err != nil {
		return nil, err
	}
	c.fs = FlowSession{Stage: StageInitial, Bucket: c.fs.Bucket, BucketResolved: c.fs.BucketResolved}
	c.open = true
	c.track("cancel_flow_opened", nil)
	return c.result(nil), nil
}

// State reports without mutating anything.
func (c *Controller) State() *Result {
	return c.result(nil)
}

// Apply runs one event against the transition table. A failed guard is a
// no-op that surfaces validation messages; a store failure aborts the
// transition and leaves the stage unchanged.
func (c *Controller) Apply(ev Event, p *EventPayload) (*Result, error) {
	if !c.open {
		return nil, ErrFlowNotOpen
	}
	if p == nil {
		p = &EventPayload{}
	}

	if ev == EventClose {
		c.track("cancel_flow_closed", nil)
		return c.closeFlow(), nil
	}

	t, ok := transitions[transitionKey{stage: c.fs.Stage, event: ev}]
	if !ok {
		return c.result(map[string]string{
			"event": fmt.Sprintf("Event %q is not allowed in stage %q.", ev, c.fs.Stage),
		}), nil
	}

	if t.guard != nil {
		if msgs := t.guard(c, p); len(msgs) > 0 {
			c.track("validation_failed", map[string]interface{}{
				"stage": string(c.fs.Stage),
				"event": string(ev),
			})
			return c.result(msgs), nil
		}
	}

	if t.effect != nil {
		if err := t.effect(c, p); err != nil {
			c.log.Error("flow", "transition aborted by store failure", map[string]interface{}{
				"stage": string(c.fs.Stage),
				"event": string(ev),
				"error": err.Error(),
			})
			return nil, err
		}
	}

	if t.closes {
		switch c.fs.Stage {
		case StageRoles:
			c.track("roles_continue_clicked", nil)
		case StageDone:
			c.track("cancel_complete_clicked", nil)
		case StageFoundJobDone:
			c.track("found_job_finish_clicked", nil)
		}
		return c.closeFlow(), nil
	}

	if t.resolve != nil {
		c.fs.Stage = t.resolve(c)
	} else {
		c.fs.Stage = t.to
	}
	return c.result(nil), nil
}

// closeFlow discards in-progress answers and resets to Initial. Only the
// bucket cache survives.
func (c *Controller) closeFlow() *Result {
	c.fs = FlowSession{Stage: StageInitial, Bucket: c.fs.Bucket, BucketResolved: c.fs.BucketResolved}
	c.open = false
	res := c.result(nil)
	res.Closed = true
	return res
}

func (c *Controller) result(msgs map[string]string) *Result {
	r := &Result{
		Stage:    c.fs.Stage,
		Closed:   !c.open,
		Messages: msgs,
		Answers:  c.fs.Answers,
	}
	if c.fs.BucketResolved {
		r.Bucket = string(c.fs.Bucket)
	}
	return r
}

func (c *Controller) track(action string, details map[string]interface{}) {
	if c.tracker != nil {
		c.tracker.Track(action, details)
	}
}

// ---------------------------------------------------------------------------
// Side effects
// ---------------------------------------------------------------------------

// ensureRecord opens the cancellation record shell on the first transition
// that needs one. bucket is attached only on the first record created.
func (c *Controller) ensureRecord(bucket *entity.ExperimentBucket) error {
	if c.fs.HasRecord {
		return nil
	}
	ctx, err := c.session.Context()
	if err != nil {
		return err
	}
	if c.fs.SubscriptionID == uuid.Nil {
		sub, err := c.store.GetActiveSubscription(ctx.CallerAccountID, ctx)
		if err != nil {
			return err
		}
		c.fs.SubscriptionID = sub.Id
	}
	id, err := c.store.CreateCancellationRecord(store.CreateCancellationParams{
		AccountId:      ctx.CallerAccountID,
		SubscriptionId: c.fs.SubscriptionID,
		Bucket:         bucket,
		Reason:         openingReason,
	}, ctx)
	if err != nil {
		return err
	}
	c.fs.RecordID = id
	c.fs.HasRecord = true
	return nil
}

func (c *Controller) effectFoundJob(_ *EventPayload) error {
	c.fs.Answers.FoundJob = FoundJobAnswers{}
	if err := c.ensureRecord(nil); err != nil {
		return err
	}
	c.track("found_job_selected", nil)
	return nil
}

// effectStillLooking reads the experiment bucket exactly once per session
// and caches it, so a mid-flow re-render never re-rolls the assignment.
func (c *Controller) effectStillLooking(_ *EventPayload) error {
	ctx, err := c.session.Context()
	if err != nil {
		return err
	}
	if !c.fs.BucketResolved {
		bucket, err := c.store.ResolveExperimentBucket(ctx.CallerAccountID, ctx)
		if err != nil {
			return err
		}
		c.fs.Bucket = bucket
		c.fs.BucketResolved = true
	}
	c.fs.SawDownsell = c.forceDownsell || c.fs.Bucket == entity.BucketA

	bucket := c.fs.Bucket
	if err := c.ensureRecord(&bucket); err != nil {
		return err
	}

	if c.fs.SawDownsell {
		c.track("downsell_shown", map[string]interface{}{"bucket": string(c.fs.Bucket)})
	} else {
		c.track("downsell_skipped", map[string]interface{}{"bucket": string(c.fs.Bucket)})
	}
	return nil
}

func (c *Controller) resolveStillLooking() Stage {
	if c.fs.SawDownsell {
		return StageDownsell
	}
	return StageReason
}

func (c *Controller) effectDownsellAccept(_ *EventPayload) error {
	ctx, err := c.session.Context()
	if err != nil {
		return err
	}
	if err := c.store.UpdateCancellationDiscountAcceptance(c.fs.RecordID, true, ctx); err != nil {
		return err
	}
	c.track("downsell_accepted", nil)
	return nil
}

func (c *Controller) effectDownsellDecline(_ *EventPayload) error {
	ctx, err := c.session.Context()
	if err != nil {
		return err
	}
	if err := c.store.UpdateCancellationDiscountAcceptance(c.fs.RecordID, false, ctx); err != nil {
		return err
	}
	c.track("downsell_declined", nil)
	return nil
}

func (c *Controller) effectSurvey(p *EventPayload) error {
	c.fs.Answers.Survey = SurveyAnswers{
		AppsApplied:          p.AppsApplied,
		CompaniesEmailed:     p.CompaniesEmailed,
		CompaniesInterviewed: p.CompaniesInterviewed,
	}
	c.track("reason_next_clicked", nil)
	return nil
}

// resolveReasonBack routes by what this session actually showed, not by
// the bucket: the branch decision is sticky per session.
func (c *Controller) resolveReasonBack() Stage {
	if c.fs.SawDownsell {
		return StageDownsell
	}
	return StageInitial
}

func (c *Controller) effectFinalSubmit(p *EventPayload) error {
	ctx, err := c.session.Context()
	if err != nil {
		return err
	}

	// Only the follow-up matching the selected reason is kept, so a reason
	// switch never carries stale text or price along.
	final := FinalAnswers{Reason: p.Reason}
	if finalReasonOptions[p.Reason] == "price" {
		final.PriceMax = p.PriceMax
	} else {
		final.Details = strings.TrimSpace(p.Details)
	}

	var bucket *entity.ExperimentBucket
	if c.fs.BucketResolved {
		b := c.fs.Bucket
		bucket = &b
	}
	if err := c.ensureRecord(bucket); err != nil {
		return err
	}
	if err := c.store.UpdateCancellationReason(c.fs.RecordID, p.Reason, ctx); err != nil {
		return err
	}
	if err := c.store.SetSubscriptionStatus(c.fs.SubscriptionID, entity.SubscriptionStatusPendingCancellation, ctx); err != nil {
		return err
	}

	c.fs.Answers.Final = final
	c.track("form_completed", map[string]interface{}{"form": "cancel_reason", "reason": p.Reason})
	return nil
}

func (c *Controller) effectFoundJobIntro(p *EventPayload) error {
	c.fs.Answers.FoundJob.FoundWithMate = p.FoundWithMate
	c.fs.Answers.FoundJob.AppsApplied = p.AppsApplied
	c.fs.Answers.FoundJob.CompaniesEmailed = p.CompaniesEmailed
	c.fs.Answers.FoundJob.CompaniesInterviewed = p.CompaniesInterviewed
	c.track("found_job_data_updated", nil)
	return nil
}

func (c *Controller) effectFoundJobFeedback(p *EventPayload) error {
	c.fs.Answers.FoundJob.Feedback = strings.TrimSpace(p.Feedback)
	c.track("found_job_data_updated", nil)
	return nil
}

func (c *Controller) effectFoundJobComplete(p *EventPayload) error {
	ctx, err := c.session.Context()
	if err != nil {
		return err
	}
	c.fs.Answers.FoundJob.HasCompanyLawyer = p.HasCompanyLawyer
	c.fs.Answers.FoundJob.Visa = strings.TrimSpace(p.Visa)

	serialized := serializeFoundJob(c.fs.Answers.FoundJob)
	if err := c.store.UpdateCancellationReason(c.fs.RecordID, serialized, ctx); err != nil {
		return err
	}
	c.track("form_completed", map[string]interface{}{"form": "found_job"})
	return nil
}
