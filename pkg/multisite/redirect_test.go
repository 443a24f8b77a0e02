package multisite

import (
	"net/http"
	"net/url"
	"testing"

	"multisite-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestHomePolicyIsHome(t *testing.T) {
	policy := NewHomePolicy("")

	tests := []struct {
		name string
		node *entity.Node
		want bool
	}{
		{name: "top-level home page", node: &entity.Node{Kind: entity.NodeKindPage, ParentId: 10, SiteId: 10, URLSegment: "home"}, want: true},
		{name: "segment is case insensitive", node: &entity.Node{Kind: entity.NodeKindPage, ParentId: 10, SiteId: 10, URLSegment: "Home"}, want: true},
		{name: "nested home segment", node: &entity.Node{Kind: entity.NodeKindPage, ParentId: 11, SiteId: 10, URLSegment: "home"}, want: false},
		{name: "other page", node: &entity.Node{Kind: entity.NodeKindPage, ParentId: 10, SiteId: 10, URLSegment: "about"}, want: false},
		{name: "site", node: &entity.Node{Kind: entity.NodeKindSite, URLSegment: "home"}, want: false},
		{name: "nil", node: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.IsHome(tt.node))
		})
	}
}

func TestEvaluateRootRedirect(t *testing.T) {
	policy := NewHomePolicy("home")
	home := &entity.Node{Id: 12, Kind: entity.NodeKindPage, ParentId: 10, SiteId: 10, URLSegment: "home"}
	about := &entity.Node{Id: 13, Kind: entity.NodeKindPage, ParentId: 10, SiteId: 10, URLSegment: "about"}

	tests := []struct {
		name     string
		req      RootRequest
		node     *entity.Node
		want     bool
		location string
	}{
		{
			name:     "plain GET of /home/",
			req:      RootRequest{Method: http.MethodGet},
			node:     home,
			want:     true,
			location: "/",
		},
		{
			name:     "query kept, routing param dropped",
			req:      RootRequest{Method: http.MethodGet, Query: url.Values{"url": {"/home/"}, "utm_source": {"mail"}, "b": {"2"}}},
			node:     home,
			want:     true,
			location: "/?b=2&utm_source=mail",
		},
		{
			name:     "only the routing param",
			req:      RootRequest{Method: http.MethodHead, Query: url.Values{"url": {"/home/"}}},
			node:     home,
			want:     true,
			location: "/",
		},
		{name: "form body", req: RootRequest{Method: http.MethodPost, HasFormBody: true}, node: home},
		{name: "form body on GET", req: RootRequest{Method: http.MethodGet, HasFormBody: true}, node: home},
		{name: "file upload", req: RootRequest{Method: http.MethodGet, HasFiles: true}, node: home},
		{name: "already redirected", req: RootRequest{Method: http.MethodGet, Redirected: true}, node: home},
		{name: "action beyond home", req: RootRequest{Method: http.MethodGet, Action: "rss"}, node: home},
		{name: "already at root", req: RootRequest{Method: http.MethodGet, AtRoot: true}, node: home},
		{name: "not a home page", req: RootRequest{Method: http.MethodGet}, node: about},
		{name: "no node", req: RootRequest{Method: http.MethodGet}, node: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := policy.EvaluateRootRedirect(tt.req, tt.node)
			assert.Equal(t, tt.want, decision.Redirect)
			if tt.want {
				assert.Equal(t, http.StatusMovedPermanently, decision.Status)
				assert.Equal(t, tt.location, decision.Location)
			}
		})
	}
}
