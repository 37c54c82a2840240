package controller

import (
	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/serverutils"
	"ai-recipe-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IRecipeController interface {
	RegisterRoutes(r fiber.Router)
	GenerateRecipe(ctx *fiber.Ctx) error
	GenerateDrinks(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type recipeController struct {
	service service.IRecipeService
	auth    fiber.Handler
}

func NewRecipeController(service service.IRecipeService, auth fiber.Handler) IRecipeController {
	return &recipeController{service: service, auth: auth}
}

func (c *recipeController) RegisterRoutes(r fiber.Router) {
	r.Post("/drinks/generate", c.auth, c.GenerateDrinks)

	h := r.Group("/recipes", c.auth)
	h.Post("/generate", c.GenerateRecipe)
	h.Get("/", c.List)
	h.Get("/:id", c.Get)
	h.Delete("/:id", c.Delete)
}

func paramUUID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid " + name)
	}
	return id, nil
}

func (c *recipeController) GenerateRecipe(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.GenerateRecipeRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.GenerateRecipe(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Recipe generated", res))
}

func (c *recipeController) GenerateDrinks(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.GenerateDrinksRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.GenerateDrinks(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Drinks generated", res))
}

func (c *recipeController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.ListRecipesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.Validation("invalid query")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.ListRecipes(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching recipes", res))
}

func (c *recipeController) Get(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	recipeId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.GetRecipe(ctx.UserContext(), userId, recipeId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching recipe", res))
}

func (c *recipeController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	recipeId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.DeleteRecipe(ctx.UserContext(), userId, recipeId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Recipe deleted", nil))
}
