package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cancelflow-be/internal/dto"
	"cancelflow-be/internal/pkg/serverutils"
	"cancelflow-be/internal/session"
	"cancelflow-be/internal/store"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Bootstrap(ctx *fiber.Ctx) error
	GetProfile(ctx *fiber.Ctx) error
	GetSubscription(ctx *fiber.Ctx) error
}

type sessionController struct {
	session  *session.Session
	store    *store.Store
	tokenTTL time.Duration
}

func NewSessionController(sess *session.Session, st *store.Store, tokenTTL time.Duration) ISessionController {
	return &sessionController{session: sess, store: st, tokenTTL: tokenTTL}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	r.Post("/session/bootstrap", c.Bootstrap)

	user := r.Group("/user", serverutils.JwtMiddleware)
	user.Get("/profile", c.GetProfile)
	user.Get("/subscription", c.GetSubscription)
}

// Bootstrap resolves the account, issues the bearer token and a fresh
// replay token. Safe to call again: the account is reused, only the
// tokens rotate.
func (c *sessionController) Bootstrap(ctx *fiber.Ctx) error {
	accountID, err := c.session.Initialize()
	if err != nil {
		return err
	}

	accessToken, err := serverutils.SignSessionToken(accountID.String(), c.tokenTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to sign session token")
	}

	replay, err := c.session.ReplayToken()
	if err != nil {
		return err
	}

	actx, err := c.session.Context()
	if err != nil {
		return err
	}
	account, err := c.store.GetAccount(accountID, actx)
	if err != nil {
		return err
	}

	resp := dto.BootstrapResponse{
		AccessToken:     accessToken,
		ReplayToken:     replay.Token,
		ReplayExpiresAt: replay.ExpiresAt,
		Account: dto.AccountResponse{
			Id:             account.Id,
			ContactAddress: account.ContactAddress,
			CreatedAt:      account.CreatedAt,
		},
	}
	return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse("Session initialized", resp))
}

func (c *sessionController) GetProfile(ctx *fiber.Ctx) error {
	accountID, actx, err := callerContext(ctx)
	if err != nil {
		return err
	}

	account, err := c.store.GetAccount(accountID, actx)
	if err != nil {
		return err
	}

	resp := dto.AccountResponse{
		Id:             account.Id,
		ContactAddress: account.ContactAddress,
		CreatedAt:      account.CreatedAt,
	}
	return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse("Profile fetched", resp))
}

func (c *sessionController) GetSubscription(ctx *fiber.Ctx) error {
	accountID, actx, err := callerContext(ctx)
	if err != nil {
		return err
	}

	sub, err := c.store.GetActiveSubscription(accountID, actx)
	if err != nil {
		return err
	}

	resp := dto.SubscriptionResponse{
		Id:           sub.Id,
		Status:       string(sub.Status),
		MonthlyPrice: sub.MonthlyPrice,
		CreatedAt:    sub.CreatedAt,
		UpdatedAt:    sub.UpdatedAt,
	}
	return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse("Subscription fetched", resp))
}

// callerContext rebuilds the access-control context from the verified
// token claims. Every store call downstream is scoped to this caller.
func callerContext(ctx *fiber.Ctx) (uuid.UUID, store.AccessContext, error) {
	raw, _ := ctx.Locals("account_id").(string)
	accountID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, store.AccessContext{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid account claim")
	}
	return accountID, store.AccessContext{CallerAccountID: accountID, IsAuthenticated: true}, nil
}
