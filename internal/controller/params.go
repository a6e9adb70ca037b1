package controller

import (
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func paramUUID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.New(apperror.CodeValidation, "Invalid "+name)
	}
	return id, nil
}

// parseBody decodes and validates the JSON body into req.
func parseBody(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return apperror.Wrap(apperror.CodeValidation, err, "Invalid request body")
	}
	return serverutils.ValidateRequest(req)
}

func currentCaller(ctx *fiber.Ctx) (service.Caller, error) {
	principal, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return service.Caller{}, err
	}
	return service.Caller{UserId: principal.UserId, Role: principal.Role}, nil
}
