package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"cancelflow-be/internal/dto"
	"cancelflow-be/internal/flow"
	"cancelflow-be/internal/pkg/serverutils"
	"cancelflow-be/internal/session"
	"cancelflow-be/internal/store"
)

const replayTokenHeader = "X-Replay-Token"

type IFlowController interface {
	RegisterRoutes(r fiber.Router)
	Open(ctx *fiber.Ctx) error
	ApplyEvent(ctx *fiber.Ctx) error
	CloseFlow(ctx *fiber.Ctx) error
	GetState(ctx *fiber.Ctx) error
}

type flowController struct {
	flow    *flow.Controller
	store   *store.Store
	session *session.Session
}

func NewFlowController(fc *flow.Controller, st *store.Store, sess *session.Session) IFlowController {
	return &flowController{flow: fc, store: st, session: sess}
}

func (c *flowController) RegisterRoutes(r fiber.Router) {
	g := r.Group("/cancellation", serverutils.JwtMiddleware)
	g.Post("/open", c.Open)
	g.Post("/event", c.ApplyEvent)
	g.Post("/close", c.CloseFlow)
	g.Get("/state", c.GetState)
}

// replayGuard protects mutating flow routes. The bearer token proves who
// the caller is; the replay token proves the session was bootstrapped
// recently. An expired replay token asks the client to re-initialize
// rather than logging it out.
func (c *flowController) replayGuard(ctx *fiber.Ctx) error {
	accountID, _, err := callerContext(ctx)
	if err != nil {
		return err
	}

	sessionAccount, err := c.session.AccountID()
	if err != nil {
		return fiber.NewError(fiber.StatusConflict, "Session not initialized, call bootstrap first")
	}
	if sessionAccount != accountID {
		return fiber.NewError(fiber.StatusForbidden, "Token does not match the active session")
	}

	token := ctx.Get(replayTokenHeader)
	if !c.store.ValidateReplayToken(token, accountID) {
		return fiber.NewError(fiber.StatusConflict, "Replay token missing or expired, re-initialize the session")
	}
	return nil
}

func (c *flowController) Open(ctx *fiber.Ctx) error {
	if err := c.replayGuard(ctx); err != nil {
		return err
	}

	res, err := c.flow.Open()
	if err != nil {
		return mapFlowErr(err)
	}
	return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse("Cancel flow opened", res))
}

func (c *flowController) ApplyEvent(ctx *fiber.Ctx) error {
	if err := c.replayGuard(ctx); err != nil {
		return err
	}

	var req dto.FlowEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Sanitize()
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	payload := &flow.EventPayload{
		FoundWithMate:        req.FoundWithMate,
		AppsApplied:          req.AppsApplied,
		CompaniesEmailed:     req.CompaniesEmailed,
		CompaniesInterviewed: req.CompaniesInterviewed,
		Feedback:             req.Feedback,
		HasCompanyLawyer:     req.HasCompanyLawyer,
		Visa:                 req.Visa,
		Reason:               req.Reason,
		Details:              req.Details,
		PriceMax:             req.PriceMax,
	}

	res, err := c.flow.Apply(flow.Event(req.Event), payload)
	if err != nil {
		return mapFlowErr(err)
	}
	return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse("Flow event processed", res))
}

func (c *flowController) CloseFlow(ctx *fiber.Ctx) error {
	if err := c.replayGuard(ctx); err != nil {
		return err
	}

	res, err := c.flow.Apply(flow.EventClose, nil)
	if err != nil {
		return mapFlowErr(err)
	}
	return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse("Cancel flow closed", res))
}

func (c *flowController) GetState(ctx *fiber.Ctx) error {
	if _, _, err := callerContext(ctx); err != nil {
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse("Flow state", c.flow.State()))
}

func mapFlowErr(err error) error {
	if errors.Is(err, flow.ErrFlowNotOpen) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	if errors.Is(err, session.ErrNoSession) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return err
}
