package flow

// Stage is the closed set of interview screens. The wire names match the
// modal stages the UI routes on.
type Stage string

const (
	StageInitial     Stage = "initial"
	StageDownsell    Stage = "downsell"
	StageRoles       Stage = "roles"
	StageReason      Stage = "reason"
	StageFinalReason Stage = "finalReason"
	StageDone        Stage = "done"

	// Left path: the user found a job.
	StageFoundJobIntro    Stage = "foundJob1"
	StageFoundJobFeedback Stage = "foundJob2"
	StageFoundJobVisa     Stage = "foundJob3"
	StageFoundJobDone     Stage = "foundJobDone"
)

// Event advances the interview. Which events are legal depends on the
// current stage; see the transition table in controller.go.
type Event string

const (
	EventFoundJob     Event = "found_job"
	EventStillLooking Event = "still_looking"
	EventAccept       Event = "accept"
	EventDecline      Event = "decline"
	EventBack         Event = "back"
	EventContinue     Event = "continue"
	EventNext         Event = "next"
	EventSubmit       Event = "submit"
	EventComplete     Event = "complete"
	EventConfirm      Event = "confirm"
	EventFinish       Event = "finish"
	EventClose        Event = "close"
)
