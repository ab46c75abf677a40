// Package cond parses and evaluates veil condition expressions
// against a runtime evaluation context, with TTL-cached results.
package cond

import (
	"strings"
)

// Interaction is the pointer/focus state of a block.
type Interaction struct {
	Hover bool `json:"hover"`
	Click bool `json:"click"`
	Focus bool `json:"focus"`
}

// Clock is the wall-clock snapshot conditions compare against.
type Clock struct {
	ISO     string `json:"iso"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	Weekday string `json:"weekday"`
}

// Minutes returns minutes since midnight, the unit HH:MM literals
// compare in.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Viewport is the rendering surface dimensions and size class.
type Viewport struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Class  string `json:"class"`
}

// BlockState carries the target block's own visibility flags.
type BlockState struct {
	Visible  bool `json:"visible"`
	Revealed bool `json:"revealed"`
}

// Context is the snapshot of runtime facts a condition is checked
// against. It is supplied by the caller at execution time and is
// never mutated by the evaluator.
type Context struct {
	Interaction Interaction       `json:"interaction"`
	Theme       string            `json:"theme,omitempty"`
	Time        Clock             `json:"time"`
	Viewport    Viewport          `json:"viewport"`
	User        map[string]string `json:"user,omitempty"`
	File        map[string]string `json:"file,omitempty"`
	Block       BlockState        `json:"block"`
}

// Resolve looks up a dot-separated path in the context. The second
// return is false for unresolvable paths, which satisfy only the
// existence-negation case. Bare interaction names (hover, click,
// focus) alias their interaction.* fields.
func (c *Context) Resolve(path string) (any, bool) {
	switch path {
	case "hover", "interaction.hover":
		return c.Interaction.Hover, true
	case "click", "interaction.click":
		return c.Interaction.Click, true
	case "focus", "interaction.focus":
		return c.Interaction.Focus, true
	case "theme":
		return c.Theme, c.Theme != ""
	case "time", "time.iso":
		return c.Time.ISO, c.Time.ISO != ""
	case "time.hour":
		return c.Time.Hour, true
	case "time.minute":
		return c.Time.Minute, true
	case "time.minutes":
		return c.Time.Minutes(), true
	case "time.weekday", "weekday":
		return c.Time.Weekday, c.Time.Weekday != ""
	case "viewport.width":
		return c.Viewport.Width, true
	case "viewport.height":
		return c.Viewport.Height, true
	case "viewport.class", "viewport":
		return c.Viewport.Class, c.Viewport.Class != ""
	case "block.visible":
		return c.Block.Visible, true
	case "block.revealed", "revealed":
		return c.Block.Revealed, true
	}

	if rest, ok := strings.CutPrefix(path, "user."); ok {
		v, found := c.User[rest]
		return v, found
	}
	if rest, ok := strings.CutPrefix(path, "file."); ok {
		v, found := c.File[rest]
		return v, found
	}
	return nil, false
}

// Category is the condition class that decides cache TTLs.
type Category string

// Condition categories.
const (
	CategoryInteraction Category = "interaction"
	CategoryTime        Category = "time"
	CategoryTheme       Category = "theme"
	CategoryFile        Category = "file"
	CategoryDefault     Category = "default"
)

// Categorize classifies an expression by its left-hand path prefix.
func Categorize(expr string) Category {
	lhs := parse(expr).LHS
	switch {
	case lhs == "hover" || lhs == "click" || lhs == "focus" ||
		strings.HasPrefix(lhs, "interaction."):
		return CategoryInteraction
	case lhs == "weekday" || lhs == "time" || strings.HasPrefix(lhs, "time."):
		return CategoryTime
	case lhs == "theme":
		return CategoryTheme
	case strings.HasPrefix(lhs, "file."):
		return CategoryFile
	}
	return CategoryDefault
}
