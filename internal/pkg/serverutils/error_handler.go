package serverutils

import (
	"errors"

	"cancelflow-be/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps the store error taxonomy onto HTTP statuses.
// AccessDenied and NotFound are final for the attempted operation;
// validation errors answer 422 with the field messages so the UI can
// highlight the unmet requirement.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if ve, ok := apperr.AsValidation(err); ok {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(BaseResponse[map[string]string]{
				Code:    fiber.StatusUnprocessableEntity,
				Message: "Validation failed",
				Data:    ve.Fields,
			})
		}

		switch {
		case errors.Is(err, apperr.ErrAccessDenied):
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, err.Error()))
		case errors.Is(err, apperr.ErrNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, err.Error()))
		case errors.Is(err, apperr.ErrPersistence):
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fiber.StatusBadGateway, err.Error()))
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(
			ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
