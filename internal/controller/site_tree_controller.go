package controller

import (
	"strconv"

	"multisite-be/internal/dto"
	"multisite-be/internal/pkg/serverutils"
	"multisite-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISiteTreeController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	CreateSite(ctx *fiber.Ctx) error
	CreatePage(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Children(ctx *fiber.Ctx) error
	MovePage(ctx *fiber.Ctx) error
	Publish(ctx *fiber.Ctx) error
}

type siteTreeController struct {
	service service.ISiteTreeService
}

func NewSiteTreeController(service service.ISiteTreeService) ISiteTreeController {
	return &siteTreeController{service: service}
}

func (c *siteTreeController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/sitetree/v1", jwtMiddleware)
	h.Post("sites", c.CreateSite)
	h.Post("pages", c.CreatePage)
	h.Get(":id", c.Show)
	h.Get(":id/children", c.Children)
	h.Put(":id/move", c.MovePage)
	h.Post(":id/publish", c.Publish)
}

func (c *siteTreeController) CreateSite(ctx *fiber.Ctx) error {
	var req dto.CreateSiteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSite(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create site", res))
}

func (c *siteTreeController) CreatePage(ctx *fiber.Ctx) error {
	var req dto.CreatePageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreatePage(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create page", res))
}

func (c *siteTreeController) Show(ctx *fiber.Ctx) error {
	id, err := nodeID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show node", res))
}

func (c *siteTreeController) Children(ctx *fiber.Ctx) error {
	id, err := nodeID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Children(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get children", res))
}

func (c *siteTreeController) MovePage(ctx *fiber.Ctx) error {
	id, err := nodeID(ctx)
	if err != nil {
		return err
	}

	var req dto.MovePageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.MovePage(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success move page", res))
}

func (c *siteTreeController) Publish(ctx *fiber.Ctx) error {
	id, err := nodeID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Publish(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success publish node", res))
}

func nodeID(ctx *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid node id")
	}
	return id, nil
}
