package controller

import (
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPlanController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)
	GetPlans(ctx *fiber.Ctx) error
	GetUsageStatus(ctx *fiber.Ctx) error
}

type planController struct {
	planService service.PlanService
}

func NewPlanController(planService service.PlanService) IPlanController {
	return &planController{
		planService: planService,
	}
}

func (c *planController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	api.Get("/plans", c.GetPlans)
	api.Get("/usage", jwtMiddleware, c.GetUsageStatus)
}

// GetPlans lists active plans for the pricing modal.
func (c *planController) GetPlans(ctx *fiber.Ctx) error {
	plans, err := c.planService.GetActivePlans(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plans retrieved", plans))
}

// GetUsageStatus reports message and chatbot usage against the caller's plan.
func (c *planController) GetUsageStatus(ctx *fiber.Ctx) error {
	principal, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	status, err := c.planService.GetUsageStatus(ctx.UserContext(), principal.UserId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Usage status retrieved", status))
}
