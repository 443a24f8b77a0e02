package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"multisite-be/internal/controller"
	"multisite-be/internal/dto"
	"multisite-be/internal/pkg/serverutils"
	"multisite-be/internal/repository/repotest"
	"multisite-be/internal/repository/unitofwork"
	"multisite-be/internal/service"
	"multisite-be/pkg/multisite"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	jwtSecret     = "test-secret"
	defaultSiteID = int64(1000000)
)

type envelope[T any] struct {
	Success bool              `json:"success"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    T                 `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func newTestApp(t *testing.T) (*fiber.App, service.ISiteTreeService) {
	t.Helper()

	uowFactory := unitofwork.NewRepositoryFactory(repotest.NewDB(t))
	directory := service.NewSiteDirectory(uowFactory, defaultSiteID, nil, nil)
	engine := multisite.NewEngine(directory, nil, nil)
	policy := multisite.NewHomePolicy("home")

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	svc := service.NewSiteTreeService(uowFactory, engine, directory, policy,
		service.NewPublisherService("site-events", pubSub), "https://example.com", defaultSiteID, nil)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(service.ErrorStatus))
	controller.NewSiteTreeController(svc).RegisterRoutes(app.Group("/api"), serverutils.NewJwtMiddleware(jwtSecret))
	controller.NewContentController(svc, directory, policy).RegisterRoutes(app)
	return app, svc
}

func token(t *testing.T) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "admin"}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func adminRequest(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	req.Header.Set("Authorization", token(t))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) envelope[T] {
	t.Helper()
	defer resp.Body.Close()
	var out envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// seedSite builds example.com with home, about and about/team through the admin API.
func seedSite(t *testing.T, app *fiber.App) map[string]int64 {
	t.Helper()
	ids := map[string]int64{}

	resp := adminRequest(t, app, http.MethodPost, "/api/sitetree/v1/sites", dto.CreateSiteRequest{Title: "Main", Hosts: []string{"example.com"}, IsDefault: true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ids["site"] = decode[dto.NodeResponse](t, resp).Data.Id

	for _, p := range []struct{ key, parent string }{{"home", "site"}, {"about", "site"}, {"team", "about"}} {
		resp := adminRequest(t, app, http.MethodPost, "/api/sitetree/v1/pages", dto.CreatePageRequest{ParentId: ids[p.parent], Title: p.key, URLSegment: p.key})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		ids[p.key] = decode[dto.NodeResponse](t, resp).Data.Id
	}
	return ids
}

func TestSiteTreeController_RequiresToken(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sitetree/v1/pages", strings.NewReader(`{}`))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/sitetree/v1/1", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSiteTreeController_CreateAndMove(t *testing.T) {
	app, _ := newTestApp(t)
	ids := seedSite(t, app)

	resp := adminRequest(t, app, http.MethodPost, "/api/sitetree/v1/sites", dto.CreateSiteRequest{Title: "Shop", Hosts: []string{"shop.test"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	shop := decode[dto.NodeResponse](t, resp).Data

	resp = adminRequest(t, app, http.MethodPut, "/api/sitetree/v1/"+strconv.FormatInt(ids["about"], 10)+"/move", map[string]int64{"parent_id": shop.Id})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decode[dto.MovePageResponse](t, resp).Data
	assert.True(t, moved.SiteChanged)
	assert.Equal(t, shop.Id, moved.SiteId)
	assert.Equal(t, []int64{ids["team"]}, moved.DescendantIds)

	resp = adminRequest(t, app, http.MethodGet, "/api/sitetree/v1/"+strconv.FormatInt(ids["team"], 10), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, shop.Id, decode[dto.NodeResponse](t, resp).Data.SiteId)

	resp = adminRequest(t, app, http.MethodGet, "/api/sitetree/v1/"+strconv.FormatInt(shop.Id, 10)+"/children", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	children := decode[[]dto.NodeResponse](t, resp).Data
	require.Len(t, children, 1)
	assert.Equal(t, ids["about"], children[0].Id)

	resp = adminRequest(t, app, http.MethodPost, "/api/sitetree/v1/"+strconv.FormatInt(ids["about"], 10)+"/publish", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSiteTreeController_Errors(t *testing.T) {
	app, _ := newTestApp(t)
	ids := seedSite(t, app)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{name: "missing node", method: http.MethodGet, path: "/api/sitetree/v1/999", status: http.StatusNotFound},
		{name: "bad id", method: http.MethodGet, path: "/api/sitetree/v1/abc", status: http.StatusBadRequest},
		{name: "invalid page", method: http.MethodPost, path: "/api/sitetree/v1/pages", body: dto.CreatePageRequest{Title: "x", URLSegment: "a/b"}, status: http.StatusBadRequest},
		{name: "second default", method: http.MethodPost, path: "/api/sitetree/v1/sites", body: dto.CreateSiteRequest{Title: "Again", IsDefault: true}, status: http.StatusConflict},
		{name: "move site", method: http.MethodPut, path: "/api/sitetree/v1/" + strconv.FormatInt(ids["site"], 10) + "/move", body: map[string]int64{"parent_id": ids["home"]}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := adminRequest(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[any](t, resp)
			assert.False(t, body.Success)
		})
	}
}

func TestContentController_RootRedirect(t *testing.T) {
	app, _ := newTestApp(t)
	ids := seedSite(t, app)

	t.Run("home under its own path", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "http://example.com/home/", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("head request", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodHead, "http://example.com/home", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	})

	t.Run("query survives without the routing parameter", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "http://example.com/home/?a=1&url=%2Fhome%2F", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
		assert.Equal(t, "/?a=1", resp.Header.Get("Location"))
	})

	t.Run("form post is served", func(t *testing.T) {
		form := url.Values{"name": {"x"}}
		req := httptest.NewRequest(http.MethodPost, "http://example.com/home/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, ids["home"], decode[dto.ContentResponse](t, resp).Data.Page.Id)
	})

	t.Run("file upload is served", func(t *testing.T) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("upload", "a.txt")
		require.NoError(t, err)
		_, _ = part.Write([]byte("hello"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "http://example.com/home/", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("action below home", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "http://example.com/home/edit", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "edit", decode[dto.ContentResponse](t, resp).Data.Action)
	})
}

func TestContentController_Serve(t *testing.T) {
	app, _ := newTestApp(t)
	ids := seedSite(t, app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "http://example.com/", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[dto.ContentResponse](t, resp).Data.Page
	assert.Equal(t, ids["home"], page.Id)
	assert.Equal(t, "/", page.Link)
	assert.Equal(t, "https://example.com/", page.AbsoluteLink)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "http://example.com/about/team/", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[dto.ContentResponse](t, resp).Data.Page
	assert.Equal(t, ids["team"], page.Id)
	assert.Equal(t, "https://example.com/about/team/", page.AbsoluteLink)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "http://example.com/nope/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
