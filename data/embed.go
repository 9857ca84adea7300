package data

import (
	"strings"

	_ "embed"

	"github.com/basicblog/gateway/internal/routing"
)

//go:embed routes.json
var defaultRoutesJSON string

// DefaultRoutes builds the built-in route table, pointing its upstream
// rules at the given base URL. Used when ROUTES_FILE is not set.
func DefaultRoutes(upstreamBase string) (*routing.Table, error) {
	src := strings.ReplaceAll(defaultRoutesJSON, "__UPSTREAM_BASE__", upstreamBase)
	return routing.Parse(strings.NewReader(src))
}
