package controller

import (
	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatbotController interface {
	RegisterRoutes(api fiber.Router, public fiber.Router, jwtMiddleware fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	ShowPublic(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
}

func NewChatbotController(chatbotService service.IChatbotService) IChatbotController {
	return &chatbotController{service: chatbotService}
}

func (c *chatbotController) RegisterRoutes(api fiber.Router, public fiber.Router, jwtMiddleware fiber.Handler) {
	h := api.Group("/chatbots", jwtMiddleware)
	h.Post("/", c.Create)
	h.Get("/", c.List)
	h.Get("/:id", c.Show)
	h.Patch("/:id", c.Update)
	h.Delete("/:id", c.Delete)
	h.Get("/:id/messages", c.History)

	public.Get("/chatbots/:id", c.ShowPublic)
}

func (c *chatbotController) Create(ctx *fiber.Ctx) error {
	caller, err := currentCaller(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateChatbotRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), caller, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Chatbot created", res))
}

func (c *chatbotController) List(ctx *fiber.Ctx) error {
	caller, err := currentCaller(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), caller)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chatbots retrieved", res))
}

func (c *chatbotController) Show(ctx *fiber.Ctx) error {
	caller, err := currentCaller(ctx)
	if err != nil {
		return err
	}
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chatbot retrieved", res))
}

func (c *chatbotController) ShowPublic(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.ShowPublic(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chatbot retrieved", res))
}

func (c *chatbotController) Update(ctx *fiber.Ctx) error {
	caller, err := currentCaller(ctx)
	if err != nil {
		return err
	}
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateChatbotRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), caller, id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chatbot updated", res))
}

func (c *chatbotController) Delete(ctx *fiber.Ctx) error {
	caller, err := currentCaller(ctx)
	if err != nil {
		return err
	}
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), caller, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chatbot deleted", nil))
}

// History returns the latest messages, oldest first. ?limit= caps the page.
func (c *chatbotController) History(ctx *fiber.Ctx) error {
	caller, err := currentCaller(ctx)
	if err != nil {
		return err
	}
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.History(ctx.UserContext(), caller, id, ctx.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Messages retrieved", res))
}
