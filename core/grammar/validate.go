package grammar

import (
	"fmt"
	"strings"

	"github.com/veildoc/veil/core/token"
)

// Severity classifies an issue.
type Severity string

// Issue severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one diagnostic produced by validation. Issues are data:
// validation never aborts early and never panics.
type Issue struct {
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", i.Line, i.Column, i.Severity, i.Message)
}

// Result is the outcome of validating a single line.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// BlockResult aggregates per-line results for a whole block.
type BlockResult struct {
	Valid    bool     `json:"valid"`
	Lines    []Result `json:"lines"`
	Errors   []Issue  `json:"errors,omitempty"`
	Warnings []Issue  `json:"warnings,omitempty"`
}

// stackEntry tracks one open statement on the hierarchy stack.
type stackEntry struct {
	depth       int
	keyword     string
	conditional bool
	elseSeen    bool
}

// Validator checks statement lines in source order. It keeps an
// indentation stack across lines so hierarchical statements and
// branch labels can be checked against their ancestors. A Validator
// is not safe for concurrent use; create one per block.
type Validator struct {
	stack []stackEntry
}

// NewValidator returns a validator with an empty hierarchy stack.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks one line in isolation, as if it were the first line
// of a block. Hierarchical lines therefore fail the ancestor check.
func Validate(line string) Result {
	return NewValidator().ValidateLine(line, 1)
}

// ValidateBlock validates all lines of a block in order, sharing one
// hierarchy stack, and aggregates the diagnostics.
func (v *Validator) ValidateBlock(lines []string) BlockResult {
	br := BlockResult{Valid: true}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			br.Lines = append(br.Lines, Result{Valid: true})
			continue
		}
		res := v.ValidateLine(line, i+1)
		br.Lines = append(br.Lines, res)
		br.Errors = append(br.Errors, res.Errors...)
		br.Warnings = append(br.Warnings, res.Warnings...)
		if !res.Valid {
			br.Valid = false
		}
	}
	return br
}

// ValidateLine checks a single statement line. Errors and warnings
// accumulate; validation always runs every applicable rule so a line
// reports as many problems as it has.
func (v *Validator) ValidateLine(line string, lineNo int) Result {
	res := Result{Valid: true}
	addErr := func(col int, format string, args ...any) {
		res.Errors = append(res.Errors, Issue{
			Line: lineNo, Column: col,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
		res.Valid = false
	}
	addWarn := func(col int, format string, args ...any) {
		res.Warnings = append(res.Warnings, Issue{
			Line: lineNo, Column: col,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityWarning,
		})
	}

	toks := token.TokenizeAt(line, lineNo)

	// Rule: the line must open with a statement operator.
	first, ok := firstToken(toks)
	if !ok || !first.IsOpener() {
		col := 0
		if ok {
			col = first.Column
		}
		addErr(col, "statement must open with %q or %q", "::", ":^:")
		checkBrackets(line, lineNo, &res)
		return res
	}

	hier := first.Kind == token.Hier
	depth := statementDepth(line, toks)

	// Pop completed siblings and deeper statements.
	for len(v.stack) > 0 && v.stack[len(v.stack)-1].depth >= depth {
		v.stack = v.stack[:len(v.stack)-1]
	}

	// Rule: hierarchical statements need a strictly shallower ancestor.
	if hier && len(v.stack) == 0 {
		addErr(first.Column, "hierarchical statement has no parent")
	}

	// Rule: a keyword must follow the opener.
	keyword, kwTok, found := statementKeyword(toks)
	if !found {
		addErr(first.Column, "statement is missing a keyword")
		checkBrackets(line, lineNo, &res)
		v.push(depth, "", false)
		return res
	}

	spec, known := Lookup(keyword)
	if !known {
		// Forward compatibility: new verbs validate but warn.
		addWarn(kwTok.Column, "unknown keyword %q", keyword)
	}

	// Rule: branch labels require a conditional ancestor, and a
	// conditional group allows at most one else branch.
	if IsBranchLabel(keyword) {
		condIdx := v.conditionalAncestor()
		if !hier {
			addErr(kwTok.Column, "branch label %q requires a hierarchical statement", keyword)
		}
		if condIdx < 0 {
			addErr(kwTok.Column, "branch label %q has no conditional ancestor", keyword)
		} else if keyword == "else" {
			if v.stack[condIdx].elseSeen {
				addErr(kwTok.Column, "duplicate else branch for conditional")
			}
			v.stack[condIdx].elseSeen = true
		}
	}

	v.checkOperators(toks, spec, known, lineNo, &res)
	checkBrackets(line, lineNo, &res)

	v.push(depth, keyword, IsConditional(keyword))
	return res
}

// checkOperators enforces zone operator ordering and zone presence
// requirements for one tokenized line.
func (v *Validator) checkOperators(toks []token.Token, spec KeywordSpec, known bool, lineNo int, res *Result) {
	addErr := func(col int, format string, args ...any) {
		res.Errors = append(res.Errors, Issue{
			Line: lineNo, Column: col,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
		res.Valid = false
	}

	relIdx, paramIdx, trigIdx := -1, -1, -1
	for i, t := range toks {
		switch t.Kind {
		case token.Relation:
			if relIdx < 0 {
				relIdx = i
			}
		case token.Param:
			if paramIdx < 0 {
				paramIdx = i
			}
		case token.Trigger:
			if trigIdx < 0 {
				trigIdx = i
			}
		}
	}

	// Rule: operator order is "//" then "%" then "->". The misplaced
	// operator is the one reported.
	if paramIdx >= 0 && relIdx >= 0 && paramIdx < relIdx {
		addErr(toks[paramIdx].Column, "parameter operator %q before relation operator %q", "%", "//")
	}
	if trigIdx >= 0 && paramIdx >= 0 && trigIdx < paramIdx {
		addErr(toks[trigIdx].Column, "trigger operator %q before parameter operator %q", "->", "%")
	}
	if trigIdx >= 0 && relIdx >= 0 && trigIdx < relIdx {
		addErr(toks[trigIdx].Column, "trigger operator %q before relation operator %q", "->", "//")
	}

	if !known {
		return
	}

	// Rule: required zones must be present and well-formed.
	if spec.RequiresZone(ZoneTarget) && relIdx < 0 {
		addErr(toks[0].Column, "keyword %q requires a target zone (%q)", spec.Keyword, "//")
	}
	if spec.RequiresZone(ZoneEffect) {
		if paramIdx < 0 {
			addErr(toks[0].Column, "keyword %q requires an effect zone (%q)", spec.Keyword, "%")
		} else if !wellFormedEffect(toks, paramIdx, trigIdx) {
			addErr(toks[paramIdx].Column, "effect zone requires at least one {action}(option) pair")
		}
	}
	if spec.RequiresZone(ZoneOutput) {
		if trigIdx < 0 {
			addErr(toks[0].Column, "keyword %q requires an output zone (%q)", spec.Keyword, "->")
		} else if !wellFormedOutput(toks, trigIdx) {
			addErr(toks[trigIdx].Column, "output zone requires a bracketed outcome")
		}
	}
}

// wellFormedEffect reports whether the span after the parameter
// operator holds at least one {action}(option) pair before the
// trigger operator (or end of line).
func wellFormedEffect(toks []token.Token, paramIdx, trigIdx int) bool {
	end := len(toks)
	if trigIdx >= 0 && trigIdx > paramIdx {
		end = trigIdx
	}
	for i := paramIdx + 1; i < end-1; i++ {
		if toks[i].Kind == token.Action && toks[i+1].Kind == token.Option {
			return true
		}
	}
	return false
}

// wellFormedOutput reports whether the trigger operator is followed
// by a bracketed outcome.
func wellFormedOutput(toks []token.Token, trigIdx int) bool {
	for i := trigIdx + 1; i < len(toks); i++ {
		switch toks[i].Kind {
		case token.Action:
			return true
		case token.EOF, token.Root, token.Hier:
			return false
		}
	}
	return false
}

// checkBrackets verifies per-line balance of all three bracket types
// on the raw text, so unmatched delimiters the tokenizer skipped are
// still reported.
func checkBrackets(line string, lineNo int, res *Result) {
	pairs := [3][2]rune{{'{', '}'}, {'[', ']'}, {'(', ')'}}
	for _, p := range pairs {
		open, close := 0, 0
		col := 0
		for i, r := range line {
			switch r {
			case p[0]:
				open++
				col = i
			case p[1]:
				close++
				col = i
			}
		}
		if open != close {
			res.Errors = append(res.Errors, Issue{
				Line: lineNo, Column: col,
				Message:  fmt.Sprintf("unbalanced %q%q brackets (%d open, %d close)", p[0], p[1], open, close),
				Severity: SeverityError,
			})
			res.Valid = false
		}
	}
}

// statementDepth derives the nesting depth of a line: indentation
// (two spaces per level) plus one level per chained hierarchical
// opener.
func statementDepth(line string, toks []token.Token) int {
	depth := token.Indent(line)
	for _, t := range toks {
		if t.Kind == token.Hier {
			depth++
			continue
		}
		break
	}
	return depth
}

// firstToken returns the first token of a line, with ok reporting
// whether the line produced any tokens at all.
func firstToken(toks []token.Token) (token.Token, bool) {
	if len(toks) == 0 {
		return token.Token{}, false
	}
	return toks[0], true
}

// statementKeyword returns the first identifier after the opener(s).
func statementKeyword(toks []token.Token) (string, token.Token, bool) {
	for _, t := range toks {
		if t.IsOpener() {
			continue
		}
		if t.Kind == token.Ident {
			return t.Value, t, true
		}
		// Anything but an identifier ends the keyword search.
		if t.Kind != token.EOF {
			return "", t, false
		}
	}
	return "", token.Token{}, false
}

// conditionalAncestor returns the stack index of the nearest
// conditional ancestor, or -1.
func (v *Validator) conditionalAncestor() int {
	for i := len(v.stack) - 1; i >= 0; i-- {
		if v.stack[i].conditional {
			return i
		}
	}
	return -1
}

func (v *Validator) push(depth int, keyword string, conditional bool) {
	v.stack = append(v.stack, stackEntry{
		depth:       depth,
		keyword:     keyword,
		conditional: conditional,
	})
}
