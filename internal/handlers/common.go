// common.go
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
	"strconv"

	"github.com/basicblog/gateway/internal/middleware"
	"github.com/basicblog/gateway/internal/types"
	"github.com/gofiber/fiber/v2"
)

// getPrincipal returns the request principal resolved by the auth
// middleware.
func getPrincipal(c *fiber.Ctx) *types.Principal {
	return middleware.PrincipalFromCtx(c)
}

// parseIDParam parses a numeric path parameter. A malformed id behaves like
// a missing entity.
func parseIDParam(c *fiber.Ctx, name string) (uint64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, types.NewNotFoundError("invalid %s '%s'", name, raw)
	}
	return id, nil
}
