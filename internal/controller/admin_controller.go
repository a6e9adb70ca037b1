package controller

import (
	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)

	// AI Model Management
	GetAllModels(ctx *fiber.Ctx) error
	CreateModel(ctx *fiber.Ctx) error
	UpdateModel(ctx *fiber.Ctx) error
	SetDefaultModel(ctx *fiber.Ctx) error

	// Global Chat Configuration
	GetAllConfigurations(ctx *fiber.Ctx) error
	UpdateConfiguration(ctx *fiber.Ctx) error

	// Plan Management
	GetAllPlans(ctx *fiber.Ctx) error
	CreatePlan(ctx *fiber.Ctx) error
	UpdatePlan(ctx *fiber.Ctx) error
}

type adminController struct {
	modelService  service.IAiModelService
	configService service.IGlobalConfigService
	planService   service.PlanService
}

func NewAdminController(
	modelService service.IAiModelService,
	configService service.IGlobalConfigService,
	planService service.PlanService,
) IAdminController {
	return &adminController{
		modelService:  modelService,
		configService: configService,
		planService:   planService,
	}
}

func (c *adminController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	h := api.Group("/admin", jwtMiddleware, serverutils.AdminOnly)

	h.Get("/models", c.GetAllModels)
	h.Post("/models", c.CreateModel)
	h.Patch("/models/:id", c.UpdateModel)
	h.Put("/models/:id/default", c.SetDefaultModel)

	h.Get("/configurations", c.GetAllConfigurations)
	h.Put("/configurations/:key", c.UpdateConfiguration)

	h.Get("/plans", c.GetAllPlans)
	h.Post("/plans", c.CreatePlan)
	h.Patch("/plans/:id", c.UpdatePlan)
}

// GetAllModels lists every model. ?active=true hides disabled ones.
func (c *adminController) GetAllModels(ctx *fiber.Ctx) error {
	res, err := c.modelService.GetAllModels(ctx.UserContext(), ctx.QueryBool("active", false))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("AI models retrieved", res))
}

func (c *adminController) CreateModel(ctx *fiber.Ctx) error {
	var req dto.CreateAiModelRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.modelService.CreateModel(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("AI model created", res))
}

func (c *adminController) UpdateModel(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateAiModelRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.modelService.UpdateModel(ctx.UserContext(), id, req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("AI model updated", res))
}

func (c *adminController) SetDefaultModel(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.modelService.SetDefaultModel(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Default AI model updated", res))
}

func (c *adminController) GetAllConfigurations(ctx *fiber.Ctx) error {
	res, err := c.configService.GetAllConfigurations(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Configurations retrieved", res))
}

func (c *adminController) UpdateConfiguration(ctx *fiber.Ctx) error {
	var req dto.UpdateAiConfigurationRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.configService.UpdateConfiguration(ctx.UserContext(), ctx.Params("key"), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Configuration updated", res))
}

func (c *adminController) GetAllPlans(ctx *fiber.Ctx) error {
	res, err := c.planService.GetAllPlans(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plans retrieved", res))
}

func (c *adminController) CreatePlan(ctx *fiber.Ctx) error {
	var req dto.AdminCreatePlanRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.planService.CreatePlan(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Plan created", res))
}

func (c *adminController) UpdatePlan(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.AdminUpdatePlanRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.planService.UpdatePlan(ctx.UserContext(), id, req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plan updated", res))
}
