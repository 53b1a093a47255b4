// Command simulation walks the cancellation interview end to end against a
// throwaway store, printing every transition. Useful for demoing the flow
// without standing up the REST server.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"cancelflow-be/internal/entity"
	"cancelflow-be/internal/flow"
	"cancelflow-be/internal/persistence"
	"cancelflow-be/internal/pkg/logger"
	"cancelflow-be/internal/session"
	"cancelflow-be/internal/store"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	ok      = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	dim     = color.New(color.Faint)
)

type consoleTracker struct{}

func (consoleTracker) Track(action string, details map[string]interface{}) {
	if len(details) > 0 {
		dim.Printf("    • %s %v\n", action, details)
		return
	}
	dim.Printf("    • %s\n", action)
}

func main() {
	dir, err := os.MkdirTemp("", "cancelflow-sim-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	adapter, err := persistence.NewFileAdapter(dir, persistence.PlainCodec{})
	if err != nil {
		log.Fatal(err)
	}

	st, err := store.New(adapter, logger.NewNopLogger(), store.Options{
		Assign: func(uuid.UUID) entity.ExperimentBucket { return entity.BucketA },
	})
	if err != nil {
		log.Fatal(err)
	}

	sess := session.New(st)
	if _, err := sess.Initialize(); err != nil {
		log.Fatal(err)
	}

	ctrl := flow.NewController(st, sess, consoleTracker{}, logger.NewNopLogger(), false)

	heading.Println("== Still looking: downsell accepted ==")
	open(ctrl)
	step(ctrl, flow.EventStillLooking, nil)
	step(ctrl, flow.EventAccept, nil)
	step(ctrl, flow.EventContinue, nil)
	dump(st)

	heading.Println("\n== Found a job: full survey ==")
	open(ctrl)
	step(ctrl, flow.EventFoundJob, nil)
	step(ctrl, flow.EventNext, &flow.EventPayload{
		FoundWithMate:        "Yes",
		AppsApplied:          "1-5",
		CompaniesEmailed:     "6-20",
		CompaniesInterviewed: "1-2",
	})

	// Deliberately short feedback first, to show the guard rejecting it.
	step(ctrl, flow.EventNext, &flow.EventPayload{Feedback: "too short"})
	step(ctrl, flow.EventNext, &flow.EventPayload{
		Feedback: "The matching quality was great and the interview prep helped a lot.",
	})

	noLawyer := false
	step(ctrl, flow.EventComplete, &flow.EventPayload{HasCompanyLawyer: &noLawyer})
	step(ctrl, flow.EventFinish, nil)
	dump(st)
}

func open(c *flow.Controller) {
	res, err := c.Open()
	if err != nil {
		log.Fatal(err)
	}
	ok.Printf("  opened at stage %q (bucket %s)\n", res.Stage, res.Bucket)
}

func step(c *flow.Controller, ev flow.Event, p *flow.EventPayload) {
	res, err := c.Apply(ev, p)
	if err != nil {
		log.Fatalf("event %s: %v", ev, err)
	}
	if len(res.Messages) > 0 {
		warn.Printf("  %s rejected: %v\n", ev, res.Messages)
		return
	}
	if res.Closed {
		ok.Printf("  %s -> flow closed\n", ev)
		return
	}
	ok.Printf("  %s -> stage %q\n", ev, res.Stage)
}

func dump(st *store.Store) {
	fmt.Println()
	for name, n := range st.CollectionCounts() {
		dim.Printf("  %-22s %d\n", name, n)
	}
}
