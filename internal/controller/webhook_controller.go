package controller

import (
	"ai-recipe-be/internal/pkg/serverutils"
	"ai-recipe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	Handle(ctx *fiber.Ctx) error
}

type webhookController struct {
	reconciler service.IPaymentReconciler
}

func NewWebhookController(reconciler service.IPaymentReconciler) IWebhookController {
	return &webhookController{reconciler: reconciler}
}

// RegisterRoutes; authenticated by the provider signature, not a JWT.
func (c *webhookController) RegisterRoutes(r fiber.Router) {
	r.Post("/webhook/:provider", c.Handle)
}

func (c *webhookController) Handle(ctx *fiber.Ctx) error {
	// Body is copied; fasthttp reuses the buffer after the handler returns.
	payload := append([]byte(nil), ctx.Body()...)

	res, err := c.reconciler.HandleWebhook(ctx.UserContext(), ctx.Params("provider"), payload, func(key string) string {
		return ctx.Get(key)
	})
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Webhook received", res))
}
