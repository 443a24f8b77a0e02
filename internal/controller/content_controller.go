package controller

import (
	"context"
	"net/url"
	"strings"

	"multisite-be/internal/dto"
	"multisite-be/internal/entity"
	"multisite-be/internal/pkg/serverutils"
	"multisite-be/internal/repository/contract"
	"multisite-be/internal/service"
	"multisite-be/pkg/multisite"

	"github.com/gofiber/fiber/v2"
)

type IContentController interface {
	RegisterRoutes(r fiber.Router)
	CurrentSite(ctx *fiber.Ctx) error
	Serve(ctx *fiber.Ctx) error
}

// SiteResolver finds the site serving a host name.
type SiteResolver interface {
	SiteForHost(ctx context.Context, host string) (*entity.Node, error)
}

type contentController struct {
	service service.ISiteTreeService
	sites   SiteResolver
	policy  multisite.HomePolicy
}

func NewContentController(service service.ISiteTreeService, sites SiteResolver, policy multisite.HomePolicy) IContentController {
	return &contentController{
		service: service,
		sites:   sites,
		policy:  policy,
	}
}

// RegisterRoutes must run after every other route group, the content
// handler matches any path. Get also answers HEAD.
func (c *contentController) RegisterRoutes(r fiber.Router) {
	r.Get("/*", c.CurrentSite, c.Serve)
	r.Post("/*", c.CurrentSite, c.Serve)
}

// CurrentSite picks the site by Host header and stores it on the request context.
func (c *contentController) CurrentSite(ctx *fiber.Ctx) error {
	site, err := c.sites.SiteForHost(ctx.UserContext(), ctx.Hostname())
	if err != nil {
		return err
	}
	if site == nil {
		return contract.ErrNodeNotFound
	}

	ctx.Locals("site_id", site.Id)
	ctx.SetUserContext(service.WithCurrentSite(ctx.UserContext(), site.Id))
	return ctx.Next()
}

func (c *contentController) Serve(ctx *fiber.Ctx) error {
	siteId, _ := ctx.Locals("site_id").(int64)

	path := ctx.Query(multisite.RoutingParam)
	if path == "" {
		path = ctx.Params("*")
	}

	resolved, err := c.service.Resolve(ctx.UserContext(), siteId, path)
	if err != nil {
		return err
	}

	decision := c.policy.EvaluateRootRedirect(rootRequest(ctx, resolved), resolved.Node)
	if decision.Redirect {
		return ctx.Redirect(decision.Location, decision.Status)
	}

	page, err := c.service.ToResponse(ctx.UserContext(), resolved.Node)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success resolve page", &dto.ContentResponse{
		Page:   page,
		Action: resolved.Action,
	}))
}

func rootRequest(ctx *fiber.Ctx, resolved *service.ResolvedPath) multisite.RootRequest {
	query, _ := url.ParseQuery(string(ctx.Request().URI().QueryString()))

	req := multisite.RootRequest{
		Method:     ctx.Method(),
		AtRoot:     resolved.AtRoot,
		Action:     resolved.Action,
		Query:      query,
		Redirected: len(ctx.Response().Header.Peek(fiber.HeaderLocation)) > 0,
	}

	contentType := strings.ToLower(string(ctx.Request().Header.ContentType()))
	switch {
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		if form, err := ctx.MultipartForm(); err == nil {
			req.HasFormBody = len(form.Value) > 0
			req.HasFiles = len(form.File) > 0
		}
	case strings.HasPrefix(contentType, fiber.MIMEApplicationForm):
		req.HasFormBody = ctx.Request().PostArgs().Len() > 0
	default:
		req.HasFormBody = len(ctx.Body()) > 0
	}
	return req
}
