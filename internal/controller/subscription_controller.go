package controller

import (
	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/serverutils"
	"ai-recipe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISubscriptionController interface {
	RegisterRoutes(r fiber.Router)
	CreateCheckout(ctx *fiber.Ctx) error
	CheckoutStatus(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Resubscribe(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type subscriptionController struct {
	checkout     service.ICheckoutService
	reconciler   service.IPaymentReconciler
	subscription service.ISubscriptionService
	auth         fiber.Handler
}

func NewSubscriptionController(
	checkout service.ICheckoutService,
	reconciler service.IPaymentReconciler,
	subscription service.ISubscriptionService,
	auth fiber.Handler,
) ISubscriptionController {
	return &subscriptionController{
		checkout:     checkout,
		reconciler:   reconciler,
		subscription: subscription,
		auth:         auth,
	}
}

func (c *subscriptionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/subscription", c.auth)
	h.Post("/create-checkout", c.CreateCheckout)
	h.Get("/checkout/status/:session_id", c.CheckoutStatus)
	h.Post("/cancel/:user_id", c.Cancel)
	h.Post("/resubscribe/:user_id", c.Resubscribe)
	h.Get("/status/:user_id", c.Status)
}

func (c *subscriptionController) CreateCheckout(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateCheckoutRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if req.UserId != userId {
		return apperror.Forbidden("you can only manage your own subscription")
	}

	res, err := c.checkout.CreateCheckout(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout session created", res))
}

func (c *subscriptionController) CheckoutStatus(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.reconciler.GetCheckoutStatus(ctx.UserContext(), userId, ctx.Params("session_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching checkout status", res))
}

func (c *subscriptionController) Cancel(ctx *fiber.Ctx) error {
	userId, err := serverutils.RequireSameUser(ctx, "user_id")
	if err != nil {
		return err
	}

	var req dto.CancelSubscriptionRequest
	// Body is optional.
	if len(ctx.Body()) > 0 {
		if err := parseBody(ctx, &req); err != nil {
			return err
		}
	}

	res, err := c.subscription.Cancel(ctx.UserContext(), userId, req.Reason)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}

func (c *subscriptionController) Resubscribe(ctx *fiber.Ctx) error {
	userId, err := serverutils.RequireSameUser(ctx, "user_id")
	if err != nil {
		return err
	}

	res, err := c.subscription.Resubscribe(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}

func (c *subscriptionController) Status(ctx *fiber.Ctx) error {
	userId, err := serverutils.RequireSameUser(ctx, "user_id")
	if err != nil {
		return err
	}

	res, err := c.subscription.GetStatus(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching subscription status", res))
}
