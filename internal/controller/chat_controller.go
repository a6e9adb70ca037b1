package controller

import (
	"bufio"
	"context"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"
	"ai-chatbot-be/pkg/sse"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	// RegisterRoutes mounts the signed-in chat on api and the embed chat on
	// public, which is expected to carry the CORS middleware.
	RegisterRoutes(api fiber.Router, public fiber.Router, jwtMiddleware fiber.Handler)
	Chat(ctx *fiber.Ctx) error
	PublicChat(ctx *fiber.Ctx) error
}

type chatController struct {
	service       service.IChatService
	publicLimiter *serverutils.RateLimiter
	logger        logger.ILogger
}

func NewChatController(chatService service.IChatService, publicLimiter *serverutils.RateLimiter, log logger.ILogger) IChatController {
	return &chatController{
		service:       chatService,
		publicLimiter: publicLimiter,
		logger:        log,
	}
}

func (c *chatController) RegisterRoutes(api fiber.Router, public fiber.Router, jwtMiddleware fiber.Handler) {
	api.Post("/chatbots/:id/chat", jwtMiddleware, c.Chat)

	public.Options("/chatbots/:id/chat", func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	})
	public.Post("/chatbots/:id/chat", c.publicLimiter.Handler(), c.PublicChat)
}

// Chat streams the reply as Server-Sent Events.
func (c *chatController) Chat(ctx *fiber.Ctx) error {
	caller, err := currentCaller(ctx)
	if err != nil {
		return err
	}
	chatbotId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.ChatRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	// fasthttp does not cancel the request context when the client leaves,
	// so the stream writer cancels it on the first failed write.
	streamCtx, cancel := context.WithCancel(ctx.UserContext())
	stream, err := c.service.GenerateChatbotResponse(streamCtx, caller, chatbotId, &req)
	if err != nil {
		cancel()
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")
	ctx.Set("X-Chat-Model", stream.Model)

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		out := sse.NewWriter(w)

		for chunk := range stream.Chunks {
			if chunk.Err != nil {
				_ = out.WriteError("The assistant could not finish the reply")
				continue
			}
			if err := out.WriteToken(chunk.Content); err != nil {
				c.logger.Debug("CHAT", "Client left the stream", map[string]interface{}{
					"chatbot_id": chatbotId.String(),
				})
				cancel()
				for range stream.Chunks {
				}
				return
			}
		}
		_ = out.Done()
	})

	return nil
}

func (c *chatController) PublicChat(ctx *fiber.Ctx) error {
	chatbotId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.PublicChatRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.GenerateChatResponse(ctx.UserContext(), chatbotId, &req, service.VisitorMeta{
		VisitorId: req.VisitorId,
		Referrer:  ctx.Get(fiber.HeaderReferer),
		UserAgent: ctx.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Reply generated", res))
}
