package cond

import "testing"

func baseContext() *Context {
	return &Context{
		Interaction: Interaction{Hover: true},
		Theme:       "dark",
		Time:        Clock{ISO: "2026-03-14T14:30:00Z", Hour: 14, Minute: 30, Weekday: "saturday"},
		Viewport:    Viewport{Width: 1280, Height: 800, Class: "desktop"},
		User:        map[string]string{"role": "admin", "level": "3"},
		File:        map[string]string{"status": "draft"},
		Block:       BlockState{Visible: true},
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		expr string
		want Parsed
	}{
		{"user.role == admin", Parsed{LHS: "user.role", Op: OpEQ, RHS: "admin"}},
		{"viewport.width >= 768", Parsed{LHS: "viewport.width", Op: OpGE, RHS: "768"}},
		{"theme != light", Parsed{LHS: "theme", Op: OpNE, RHS: "light"}},
		{"file.status ~ ^dra", Parsed{LHS: "file.status", Op: OpMatch, RHS: "^dra"}},
		{"theme = dark", Parsed{LHS: "theme", Op: OpAssign, RHS: "dark"}},
		{"hover", Parsed{LHS: "hover", Op: OpExists}},
	}
	for _, tt := range tests {
		if got := Parse(tt.expr); got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.expr, got, tt.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	ctx := baseContext()
	tests := []struct {
		expr string
		want bool
	}{
		// Equality, numeric and case-insensitive string.
		{"user.role == admin", true},
		{"user.role == Admin", true},
		{"user.role == guest", false},
		{"user.level == 3", true},
		{"theme = dark", true},
		{"theme != light", true},
		{"theme != dark", false},

		// Ordering, including HH:MM literals against the clock.
		{"viewport.width >= 768", true},
		{"viewport.width < 768", false},
		{"time.minutes > 14:00", true},
		{"time.minutes <= 14:30", true},
		{"time.hour >= 15", false},

		// Existence.
		{"hover", true},
		{"click", false},
		{"interaction.hover", true},
		{"block.visible", true},
		{"user.role", true},
		{"user.missing", false},

		// Regex match.
		{"file.status ~ ^dra", true},
		{"file.status ~ final$", false},

		// Fail closed: unresolvable paths and broken operands.
		{"unknown.path == x", false},
		{"unknown.path > 1", false},
		{"theme > 5", false},
		{"file.status ~ [", false},
	}
	for _, tt := range tests {
		if got := Evaluate(tt.expr, ctx); got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestEvaluateNilContext(t *testing.T) {
	if Evaluate("user.role == admin", nil) {
		t.Error("nil context must fail closed")
	}
	if Evaluate("hover", nil) {
		t.Error("existence against nil context must fail closed")
	}
}

func TestOperatorPrecedence(t *testing.T) {
	// ">=" must never be read as ">" followed by a dangling "=".
	p := Parse("viewport.width >= 768")
	if p.Op != OpGE || p.RHS != "768" {
		t.Errorf("parsed = %+v, want >= with RHS 768", p)
	}
	p = Parse("theme != light")
	if p.Op != OpNE {
		t.Errorf("parsed op = %q, want !=", p.Op)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		expr string
		want Category
	}{
		{"hover", CategoryInteraction},
		{"interaction.click == true", CategoryInteraction},
		{"time.hour >= 9", CategoryTime},
		{"weekday == saturday", CategoryTime},
		{"theme == dark", CategoryTheme},
		{"file.status == draft", CategoryFile},
		{"user.role == admin", CategoryDefault},
		{"viewport.width > 700", CategoryDefault},
	}
	for _, tt := range tests {
		if got := Categorize(tt.expr); got != tt.want {
			t.Errorf("Categorize(%q) = %s, want %s", tt.expr, got, tt.want)
		}
	}
}
