package multisite

import (
	"net/http"
	"net/url"
	"strings"

	"multisite-be/internal/entity"
)

const (
	// RoutingParam carries the resolved path through the router and is never
	// part of a canonical URL.
	RoutingParam = "url"

	DefaultHomeSegment = "home"
	RootPath           = "/"
)

// RootRequest is the part of an inbound request the root policy looks at.
type RootRequest struct {
	Method string
	// AtRoot is set when the request already addressed the site root path.
	AtRoot bool
	// Action is whatever path remains after the resolved node, if anything.
	Action      string
	Query       url.Values
	HasFormBody bool
	HasFiles    bool
	Redirected  bool
}

type RedirectDecision struct {
	Redirect bool
	Location string
	Status   int
}

// HomePolicy decides which page is a site's home and keeps it on the site root.
type HomePolicy struct {
	HomeSegment string
}

func NewHomePolicy(homeSegment string) HomePolicy {
	if homeSegment == "" {
		homeSegment = DefaultHomeSegment
	}
	return HomePolicy{HomeSegment: homeSegment}
}

// IsHome reports whether node is the home page of its site: a top-level page
// of the site carrying the home URL segment.
func (p HomePolicy) IsHome(node *entity.Node) bool {
	if node == nil || node.Kind != entity.NodeKindPage || node.SiteId == 0 {
		return false
	}
	return node.ParentId == node.SiteId && strings.EqualFold(node.URLSegment, p.segment())
}

// EvaluateRootRedirect sends a plain navigational request for a home page,
// such as GET /home/, permanently to the site root. Query parameters survive
// except the routing parameter.
func (p HomePolicy) EvaluateRootRedirect(req RootRequest, node *entity.Node) RedirectDecision {
	if req.AtRoot || !p.IsHome(node) {
		return RedirectDecision{}
	}
	if strings.Trim(req.Action, "/") != "" {
		return RedirectDecision{}
	}
	if !isNavigational(req.Method) || req.HasFormBody || req.HasFiles || req.Redirected {
		return RedirectDecision{}
	}

	location := RootPath
	if query := canonicalQuery(req.Query); query != "" {
		location += "?" + query
	}
	return RedirectDecision{
		Redirect: true,
		Location: location,
		Status:   http.StatusMovedPermanently,
	}
}

func (p HomePolicy) segment() string {
	if p.HomeSegment == "" {
		return DefaultHomeSegment
	}
	return p.HomeSegment
}

func isNavigational(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead:
		return true
	}
	return false
}

func canonicalQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	kept := make(url.Values, len(query))
	for k, v := range query {
		if k == RoutingParam {
			continue
		}
		kept[k] = v
	}
	return kept.Encode()
}
