package serverutils

import (
	"errors"
	"net/http"

	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// envelope. Causes of 5xx errors are logged and only echoed outside production.
func ErrorHandlerMiddleware(log logger.ILogger, production bool) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err, log, production)
	}
}

func WriteError(ctx *fiber.Ctx, err error, log logger.ILogger, production bool) error {
	status, body := errorBody(err, production)

	if status >= http.StatusInternalServerError && log != nil {
		log.Error("HTTP", "Request failed", map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"status": status,
			"error":  err.Error(),
		})
	}

	return ctx.Status(status).JSON(body)
}

func errorBody(err error, production bool) (int, Response) {
	if appErr := apperror.As(err); appErr != nil {
		meta := apperror.MetadataFor(appErr.Code())
		message := appErr.Message()
		if message == "" {
			message = meta.PublicMessage
		}

		body := ErrorResponse(meta.HTTPStatus, message)
		body.ErrorType = string(appErr.Code())
		if meta.DetailsAllowed {
			body.Data = appErr.Details()
		}
		if meta.HTTPStatus >= http.StatusInternalServerError && !production && appErr.Unwrap() != nil {
			body.Data = fiber.Map{"cause": appErr.Unwrap().Error()}
		}
		return meta.HTTPStatus, body
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	}

	meta := apperror.MetadataFor(apperror.CodeInternal)
	body := ErrorResponse(meta.HTTPStatus, meta.PublicMessage)
	body.ErrorType = string(apperror.CodeInternal)
	if !production {
		body.Data = fiber.Map{"cause": err.Error()}
	}
	return meta.HTTPStatus, body
}
