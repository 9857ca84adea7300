// forwarder.go
//
// An authenticating request gateway and content store for the BasicBlog backend
// Copyright (c) 2026 BasicBlog Gateway contributors
//
// This file is part of basicblog-gateway.
// basicblog-gateway is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// basicblog-gateway is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with basicblog-gateway.
// If not, see <https://www.gnu.org/licenses/>.

package proxy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/basicblog/gateway/internal/middleware"
	"github.com/basicblog/gateway/internal/routing"
	"github.com/basicblog/gateway/internal/types"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityHeader carries the gateway-signed identity assertion to the
// upstream backend. Only the gateway sets it; the inbound value is always
// discarded.
const IdentityHeader = "X-Gateway-Identity"

// assertionTTL bounds the validity of an identity assertion. Assertions are
// minted per forwarded request, so the window only needs to cover transit.
const assertionTTL = 30 * time.Second

// retryBackoff is the pause before the single retry of an idempotent method.
const retryBackoff = 100 * time.Millisecond

// hopByHopHeaders are connection-scoped and never forwarded in either
// direction.
var hopByHopHeaders = []string{
	fiber.HeaderConnection,
	fiber.HeaderKeepAlive,
	fiber.HeaderProxyAuthenticate,
	fiber.HeaderProxyAuthorization,
	fiber.HeaderTE,
	fiber.HeaderTrailer,
	fiber.HeaderTransferEncoding,
	fiber.HeaderUpgrade,
}

// identityClaims is the payload of the signed assertion: the authenticated
// user id as subject plus username and role claims.
type identityClaims struct {
	jwt.RegisteredClaims
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Forwarder relays requests to the upstream backend with a bounded timeout.
type Forwarder struct {
	client  *http.Client
	secret  []byte
	timeout time.Duration
}

// NewForwarder builds a forwarder. The timeout bounds the whole upstream
// exchange including response body transfer (fail closed).
func NewForwarder(timeout time.Duration, secret string) *Forwarder {
	return &Forwarder{
		client:  &http.Client{Timeout: timeout},
		secret:  []byte(secret),
		timeout: timeout,
	}
}

// Forward relays the inbound request to the rule's upstream base, relaying
// the backend's status, headers and body back unchanged. Network failures
// map to 502, deadline overruns to 504. GET and HEAD are retried once after
// a short backoff on non-timeout failures; unsafe methods are never
// retried. The upstream call runs under the inbound request context so a
// client disconnect cancels it.
func (f *Forwarder) Forward(c *fiber.Ctx, rule *routing.RouteRule, principal *types.Principal) error {
	target := strings.TrimSuffix(rule.UpstreamBase, "/") + c.OriginalURL()
	method := c.Method()
	body := c.Body()

	resp, err := f.send(c.UserContext(), c, method, target, body, principal)
	if err != nil {
		if isTimeout(err) {
			return types.NewUpstreamTimeoutError("upstream %s did not respond within %s", rule.UpstreamBase, f.timeout)
		}
		if isIdempotent(method) {
			time.Sleep(retryBackoff)
			resp, err = f.send(c.UserContext(), c, method, target, body, principal)
		}
		if err != nil {
			if isTimeout(err) {
				return types.NewUpstreamTimeoutError("upstream %s did not respond within %s", rule.UpstreamBase, f.timeout)
			}
			return types.NewUpstreamError("upstream %s unavailable: %v", rule.UpstreamBase, err)
		}
	}

	return relay(c, resp)
}

// send performs one upstream attempt.
func (f *Forwarder) send(ctx context.Context, c *fiber.Ctx, method, target string, body []byte, principal *types.Principal) (*http.Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}

	copyInboundHeaders(c, req)

	if !principal.IsAnonymous() {
		assertion, err := f.signIdentity(principal)
		if err != nil {
			return nil, err
		}
		req.Header.Set(IdentityHeader, assertion)
	}
	xff := c.Get(fiber.HeaderXForwardedFor)
	if xff != "" {
		xff += ", "
	}
	req.Header.Set(fiber.HeaderXForwardedFor, xff+c.IP())

	return f.client.Do(req)
}

// signIdentity mints a short-lived HS256 assertion for the principal so the
// backend can trust the forwarded identity without re-authenticating.
func (f *Forwarder) signIdentity(principal *types.Principal) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			Issuer:    "basicblog-gateway",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
		},
		Username: principal.Username,
		Roles:    principal.Roles,
	})
	return token.SignedString(f.secret)
}

// copyInboundHeaders forwards request headers minus hop-by-hop headers, any
// inbound identity assertion, and the gateway's own session cookie.
func copyInboundHeaders(c *fiber.Ctx, req *http.Request) {
	for key, values := range c.GetReqHeaders() {
		if isHopByHop(key) || strings.EqualFold(key, IdentityHeader) {
			continue
		}
		if strings.EqualFold(key, fiber.HeaderCookie) {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	// Pass through cookies except the gateway session token.
	var cookies []string
	c.Context().Request.Header.VisitAllCookie(func(key, value []byte) {
		if string(key) == middleware.SessionCookieName {
			return
		}
		cookies = append(cookies, string(key)+"="+string(value))
	})
	if len(cookies) > 0 {
		req.Header.Set(fiber.HeaderCookie, strings.Join(cookies, "; "))
	}
}

// relay streams the backend response to the caller without buffering the
// whole body.
func relay(c *fiber.Ctx, resp *http.Response) error {
	for _, h := range hopByHopHeaders {
		resp.Header.Del(h)
	}
	for key, values := range resp.Header {
		for _, v := range values {
			c.Response().Header.Add(key, v)
		}
	}

	c.Status(resp.StatusCode)
	if resp.ContentLength >= 0 {
		return c.SendStream(resp.Body, int(resp.ContentLength))
	}
	return c.SendStream(resp.Body)
}

func isHopByHop(key string) bool {
	for _, h := range hopByHopHeaders {
		if strings.EqualFold(key, h) {
			return true
		}
	}
	return false
}

func isIdempotent(method string) bool {
	return method == fiber.MethodGet || method == fiber.MethodHead
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
