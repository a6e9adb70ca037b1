package controller

import (
	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPaymentController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)
	Checkout(ctx *fiber.Ctx) error
	Webhook(ctx *fiber.Ctx) error
	GetSubscription(ctx *fiber.Ctx) error
	CancelSubscription(ctx *fiber.Ctx) error
}

type paymentController struct {
	service service.IPaymentService
	logger  logger.ILogger
}

func NewPaymentController(paymentService service.IPaymentService, log logger.ILogger) IPaymentController {
	return &paymentController{service: paymentService, logger: log}
}

func (c *paymentController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	h := api.Group("/payment")
	h.Post("/midtrans/notification", c.Webhook)
	h.Post("/checkout", jwtMiddleware, c.Checkout)

	s := api.Group("/subscription", jwtMiddleware)
	s.Get("/", c.GetSubscription)
	s.Post("/cancel", c.CancelSubscription)
}

func (c *paymentController) Checkout(ctx *fiber.Ctx) error {
	principal, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.CheckoutRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Checkout(ctx.UserContext(), principal.UserId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription created", res))
}

// Webhook answers Midtrans with a bare status. Anything but 200 makes
// Midtrans retry, so only a bad body or signature is final.
func (c *paymentController) Webhook(ctx *fiber.Ctx) error {
	var req dto.MidtransWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		c.logger.Warn("WEBHOOK", "Body parsing failed", map[string]interface{}{"error": err.Error()})
		return ctx.SendStatus(fiber.StatusBadRequest)
	}

	if err := c.service.HandleNotification(ctx.UserContext(), &req); err != nil {
		c.logger.Error("WEBHOOK", "Notification handling failed", map[string]interface{}{
			"order_id": req.OrderId,
			"status":   req.TransactionStatus,
			"error":    err.Error(),
		})
		if apperror.IsCode(err, apperror.CodeUnauthorized) {
			return ctx.SendStatus(fiber.StatusForbidden)
		}
		return ctx.SendStatus(fiber.StatusInternalServerError)
	}

	return ctx.SendStatus(fiber.StatusOK)
}

func (c *paymentController) GetSubscription(ctx *fiber.Ctx) error {
	principal, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetSubscription(ctx.UserContext(), principal.UserId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription status", res))
}

func (c *paymentController) CancelSubscription(ctx *fiber.Ctx) error {
	principal, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	if err := c.service.CancelSubscription(ctx.UserContext(), principal.UserId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription will end with the current period", nil))
}
