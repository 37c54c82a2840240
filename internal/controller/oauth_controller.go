package controller

import (
	"fmt"
	"net/url"
	"strings"

	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service   service.IOAuthService
	clientURL string
}

func NewOAuthController(service service.IOAuthService, clientURL string) IOAuthController {
	return &oauthController{service: service, clientURL: strings.TrimRight(clientURL, "/")}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	// e.g., /auth/google
	h := r.Group("/auth")
	h.Get("/:provider", c.Login)
	h.Get("/:provider/callback", c.Callback)
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	loginURL, err := c.service.GetLoginURL(ctx.Params("provider"))
	if err != nil {
		return err
	}
	return ctx.Redirect(loginURL, fiber.StatusTemporaryRedirect)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	if code == "" {
		return apperror.Validation("missing code")
	}

	res, err := c.service.HandleCallback(ctx.UserContext(), ctx.Params("provider"), ctx.Query("state"), code)
	if err != nil {
		return err
	}

	// Token goes to the SPA in the URL fragment-free query, which it strips on load.
	redirectURL := fmt.Sprintf("%s/app?token=%s", c.clientURL, url.QueryEscape(res.AccessToken))
	return ctx.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}
