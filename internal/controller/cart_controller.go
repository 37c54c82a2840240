package controller

import (
	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/pkg/serverutils"
	"ai-recipe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICartController interface {
	RegisterRoutes(r fiber.Router)
	SearchProducts(ctx *fiber.Ctx) error
	Build(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	RemoveItem(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
}

type cartController struct {
	service service.ICartService
	auth    fiber.Handler
}

func NewCartController(service service.ICartService, auth fiber.Handler) ICartController {
	return &cartController{service: service, auth: auth}
}

func (c *cartController) RegisterRoutes(r fiber.Router) {
	r.Get("/products/search", c.auth, c.SearchProducts)

	h := r.Group("/cart", c.auth)
	h.Post("/build", c.Build)
	h.Get("/", c.Get)
	h.Delete("/", c.Clear)
	h.Delete("/items/:id", c.RemoveItem)
}

func (c *cartController) SearchProducts(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.SearchProducts(ctx.UserContext(), userId, ctx.Query("q"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success searching products", res))
}

func (c *cartController) Build(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.BuildCartRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.BuildCart(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Cart updated", res))
}

func (c *cartController) Get(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetCart(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching cart", res))
}

func (c *cartController) RemoveItem(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	itemId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.RemoveCartItem(ctx.UserContext(), userId, itemId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Item removed", nil))
}

func (c *cartController) Clear(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	if err := c.service.ClearCart(ctx.UserContext(), userId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Cart cleared", nil))
}
