// table.go
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

package routing

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Destination selects how a matched request is dispatched.
type Destination string

const (
	DestinationLocal    Destination = "local"
	DestinationUpstream Destination = "upstream"
)

// Auth requirement kinds.
const (
	AuthAnonymous     = "anonymous"
	AuthAuthenticated = "authenticated"
	AuthRole          = "role"
)

// AuthRequirement is the authorization policy of a route rule. Kind is one
// of the Auth* constants; Role is set only for AuthRole.
type AuthRequirement struct {
	Kind string
	Role string
}

// UnmarshalJSON parses "anonymous", "authenticated" or "role:<name>".
func (a *AuthRequirement) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch {
	case s == AuthAnonymous || s == "":
		a.Kind = AuthAnonymous
	case s == AuthAuthenticated:
		a.Kind = AuthAuthenticated
	case strings.HasPrefix(s, AuthRole+":"):
		role := strings.TrimPrefix(s, AuthRole+":")
		if role == "" {
			return fmt.Errorf("route auth %q: role name is empty", s)
		}
		a.Kind = AuthRole
		a.Role = role
	default:
		return fmt.Errorf("route auth %q: expected anonymous, authenticated or role:<name>", s)
	}
	return nil
}

// MarshalJSON renders the requirement back to its config form.
func (a AuthRequirement) MarshalJSON() ([]byte, error) {
	s := a.Kind
	if a.Kind == AuthRole {
		s = AuthRole + ":" + a.Role
	}
	return json.Marshal(s)
}

// RouteRule is one ordered entry of the route table. Immutable after load.
type RouteRule struct {
	Match        string          `json:"match"`
	Destination  Destination     `json:"destinationKind"`
	UpstreamBase string          `json:"upstreamBase,omitempty"`
	Auth         AuthRequirement `json:"auth"`
}

// Table is an ordered, immutable set of route rules. Declaration order
// encodes precedence: Match returns the first rule whose pattern covers
// the path.
type Table struct {
	rules []RouteRule
}

// Parse reads a JSON array of route rules, preserving declaration order.
func Parse(r io.Reader) (*Table, error) {
	var rules []RouteRule
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rules); err != nil {
		return nil, fmt.Errorf("failed to parse route table: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("route table is empty")
	}

	for i, rule := range rules {
		if !strings.HasPrefix(rule.Match, "/") {
			return nil, fmt.Errorf("route %d: match %q must start with /", i, rule.Match)
		}
		switch rule.Destination {
		case DestinationLocal:
			if rule.UpstreamBase != "" {
				return nil, fmt.Errorf("route %d: local destination must not set upstreamBase", i)
			}
		case DestinationUpstream:
			if rule.UpstreamBase == "" {
				return nil, fmt.Errorf("route %d: upstream destination requires upstreamBase", i)
			}
		default:
			return nil, fmt.Errorf("route %d: unknown destinationKind %q", i, rule.Destination)
		}
		if rules[i].Auth.Kind == "" {
			rules[i].Auth.Kind = AuthAnonymous
		}
	}

	return &Table{rules: rules}, nil
}

// LoadFile parses a route table from a JSON file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open route table %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Match returns the first rule whose pattern is an exact or prefix match of
// the path, or nil when no rule applies. Prefixes match on path segment
// boundaries: "/Blog" covers "/Blog" and "/Blog/5" but not "/Blogging".
func (t *Table) Match(path string) *RouteRule {
	for i := range t.rules {
		if matches(t.rules[i].Match, path) {
			return &t.rules[i]
		}
	}
	return nil
}

// Len returns the number of rules in the table.
func (t *Table) Len() int {
	return len(t.rules)
}

// Rules returns a copy of the table's rules in declaration order.
func (t *Table) Rules() []RouteRule {
	out := make([]RouteRule, len(t.rules))
	copy(out, t.rules)
	return out
}

func matches(pattern, path string) bool {
	if pattern == "/" {
		return strings.HasPrefix(path, "/")
	}
	if path == pattern {
		return true
	}
	return strings.HasPrefix(path, pattern+"/")
}
