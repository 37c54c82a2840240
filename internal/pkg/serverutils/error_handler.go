package serverutils

import (
	"errors"

	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindConfiguration:
		return fiber.StatusServiceUnavailable
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindEligibility, apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	case apperror.KindRateLimited:
		return fiber.StatusTooManyRequests
	case apperror.KindUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// WriteError renders err as a BaseResponse. Internal causes are logged and never rendered.
func WriteError(ctx *fiber.Ctx, log logger.ILogger, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
	}

	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal("internal server error", err)
	}

	status := StatusFor(appErr.Kind)
	if log != nil && status >= fiber.StatusInternalServerError {
		log.Error("HTTP", appErr.Message, map[string]interface{}{
			"kind":   string(appErr.Kind),
			"path":   ctx.Path(),
			"method": ctx.Method(),
			"error":  err.Error(),
		})
	}

	res := ErrorResponse(status, appErr.Message)
	res.Error = string(appErr.Kind)
	return ctx.Status(status).JSON(res)
}

// ErrorHandlerMiddleware converts errors returned by downstream handlers into the
// standard envelope.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, log, err)
	}
}

// ErrorHandler is the fiber.Config hook for errors raised outside the middleware chain.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		return WriteError(ctx, log, err)
	}
}
