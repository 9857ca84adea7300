package routing_test

import (
	"strings"
	"testing"

	"github.com/basicblog/gateway/internal/routing"
)

const testTable = `[
	{"match": "/Blog", "destinationKind": "local", "auth": "anonymous"},
	{"match": "/Users", "destinationKind": "local", "auth": "role:admin"},
	{"match": "/", "destinationKind": "upstream", "upstreamBase": "http://backend:8080", "auth": "anonymous"}
]`

// TestMatchOrderDependent verifies first-declared-match-wins semantics:
// /Blog/5 must hit the local /Blog rule, not the upstream catch-all.
func TestMatchOrderDependent(t *testing.T) {
	table, err := routing.Parse(strings.NewReader(testTable))
	if err != nil {
		t.Fatalf("Failed to parse route table: %v", err)
	}

	rule := table.Match("/Blog/5")
	if rule == nil {
		t.Fatal("Expected a rule for /Blog/5")
	}
	if rule.Destination != routing.DestinationLocal {
		t.Errorf("Expected local destination for /Blog/5, got %s", rule.Destination)
	}
	if rule.Match != "/Blog" {
		t.Errorf("Expected /Blog rule, got %s", rule.Match)
	}

	rule = table.Match("/anything/else")
	if rule == nil {
		t.Fatal("Expected the catch-all rule for /anything/else")
	}
	if rule.Destination != routing.DestinationUpstream {
		t.Errorf("Expected upstream destination, got %s", rule.Destination)
	}
	if rule.UpstreamBase != "http://backend:8080" {
		t.Errorf("Unexpected upstream base: %s", rule.UpstreamBase)
	}
}

// TestMatchSegmentBoundary verifies prefixes only match whole path segments.
func TestMatchSegmentBoundary(t *testing.T) {
	table, err := routing.Parse(strings.NewReader(`[
		{"match": "/Blog", "destinationKind": "local", "auth": "anonymous"}
	]`))
	if err != nil {
		t.Fatalf("Failed to parse route table: %v", err)
	}

	if rule := table.Match("/Blog"); rule == nil {
		t.Error("Expected exact match for /Blog")
	}
	if rule := table.Match("/Blog/5/comments"); rule == nil {
		t.Error("Expected prefix match for /Blog/5/comments")
	}
	if rule := table.Match("/Blogging"); rule != nil {
		t.Error("Expected no match for /Blogging")
	}
}

// TestMatchDeterministic ensures repeated matches yield the same rule.
func TestMatchDeterministic(t *testing.T) {
	table, err := routing.Parse(strings.NewReader(testTable))
	if err != nil {
		t.Fatalf("Failed to parse route table: %v", err)
	}

	first := table.Match("/Blog/5")
	for i := 0; i < 10; i++ {
		if got := table.Match("/Blog/5"); got.Match != first.Match {
			t.Fatalf("Match is not deterministic: %s != %s", got.Match, first.Match)
		}
	}
}

// TestAuthRequirementParsing covers the three auth requirement forms.
func TestAuthRequirementParsing(t *testing.T) {
	table, err := routing.Parse(strings.NewReader(`[
		{"match": "/a", "destinationKind": "local", "auth": "anonymous"},
		{"match": "/b", "destinationKind": "local", "auth": "authenticated"},
		{"match": "/c", "destinationKind": "local", "auth": "role:admin"}
	]`))
	if err != nil {
		t.Fatalf("Failed to parse route table: %v", err)
	}

	rules := table.Rules()
	if rules[0].Auth.Kind != routing.AuthAnonymous {
		t.Errorf("Expected anonymous, got %s", rules[0].Auth.Kind)
	}
	if rules[1].Auth.Kind != routing.AuthAuthenticated {
		t.Errorf("Expected authenticated, got %s", rules[1].Auth.Kind)
	}
	if rules[2].Auth.Kind != routing.AuthRole || rules[2].Auth.Role != "admin" {
		t.Errorf("Expected role:admin, got %s:%s", rules[2].Auth.Kind, rules[2].Auth.Role)
	}
}

// TestParseRejectsInvalidTables exercises load-time validation.
func TestParseRejectsInvalidTables(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty table", `[]`},
		{"match without slash", `[{"match": "Blog", "destinationKind": "local", "auth": "anonymous"}]`},
		{"unknown destination", `[{"match": "/x", "destinationKind": "teleport", "auth": "anonymous"}]`},
		{"upstream without base", `[{"match": "/x", "destinationKind": "upstream", "auth": "anonymous"}]`},
		{"local with base", `[{"match": "/x", "destinationKind": "local", "upstreamBase": "http://b", "auth": "anonymous"}]`},
		{"bad auth", `[{"match": "/x", "destinationKind": "local", "auth": "role:"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := routing.Parse(strings.NewReader(tc.input)); err == nil {
				t.Errorf("Expected parse error for %s", tc.name)
			}
		})
	}
}
