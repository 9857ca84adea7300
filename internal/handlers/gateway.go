// gateway.go
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

package handlers

import (
	"github.com/basicblog/gateway/internal/middleware"
	"github.com/basicblog/gateway/internal/proxy"
	"github.com/basicblog/gateway/internal/routing"
	"github.com/basicblog/gateway/internal/types"
	"github.com/gofiber/fiber/v2"
)

// GatewayHandler is the terminal handler for requests no local route
// claimed. It relays upstream-bound requests and 404s the rest.
type GatewayHandler struct {
	Forwarder *proxy.Forwarder
}

// Dispatch forwards the request to the upstream named by the matched route
// rule. Authorization has already run, so arriving here with an upstream
// rule means the caller is allowed through.
func (h *GatewayHandler) Dispatch(c *fiber.Ctx) error {
	rule := middleware.RouteFromCtx(c)
	if rule == nil || rule.Destination != routing.DestinationUpstream {
		return types.NewNotFoundError("no route for %s", c.Path())
	}
	return h.Forwarder.Forward(c, rule, middleware.PrincipalFromCtx(c))
}
