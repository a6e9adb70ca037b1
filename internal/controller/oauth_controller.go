package controller

import (
	"net/url"
	"time"

	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const oauthStateCookie = "oauth_state"

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service   service.IOAuthService
	clientURL string
	secure    bool
	logger    logger.ILogger
}

func NewOAuthController(oauthService service.IOAuthService, clientURL string, secureCookies bool, log logger.ILogger) IOAuthController {
	return &oauthController{
		service:   oauthService,
		clientURL: clientURL,
		secure:    secureCookies,
		logger:    log,
	}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Get("/:provider", c.Login)
	h.Get("/:provider/callback", c.Callback)
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	loginURL, state, err := c.service.GetLoginURL(ctx.Params("provider"))
	if err != nil {
		return err
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   c.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ctx.Redirect(loginURL, fiber.StatusTemporaryRedirect)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")

	state := ctx.Query("state")
	if state == "" || state != ctx.Cookies(oauthStateCookie) {
		return apperror.New(apperror.CodeUnauthorized, "Invalid login state")
	}
	ctx.ClearCookie(oauthStateCookie)

	code := ctx.Query("code")
	if code == "" {
		return apperror.New(apperror.CodeValidation, "Missing code")
	}

	res, err := c.service.HandleCallback(ctx.UserContext(), provider, code)
	if err != nil {
		return err
	}

	c.logger.Info("OAUTH", "Redirecting to client", map[string]interface{}{
		"user_id":  res.User.Id.String(),
		"provider": provider,
	})

	return ctx.Redirect(c.clientURL+"/app?token="+url.QueryEscape(res.AccessToken), fiber.StatusTemporaryRedirect)
}
