package cond

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/veildoc/veil/internal/logging"
)

// Op is a condition comparison operator.
type Op string

// The closed operator set. Conditions never evaluate arbitrary
// expressions; this enumeration is the entire surface.
const (
	OpExists Op = ""
	OpGE     Op = ">="
	OpLE     Op = "<="
	OpNE     Op = "!="
	OpEQ     Op = "=="
	OpGT     Op = ">"
	OpLT     Op = "<"
	OpAssign Op = "="
	OpMatch  Op = "~"
)

// operators in trial order: two-character operators first so ">="
// is never misread as ">" followed by "=".
var operators = []Op{OpGE, OpLE, OpNE, OpEQ, OpGT, OpLT, OpAssign, OpMatch}

// Parsed is a condition split into its triple.
type Parsed struct {
	LHS string
	Op  Op
	RHS string
}

// hhmm matches a time-of-day literal.
var hhmm = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// parse splits an expression into lhs/op/rhs. A bare identifier-like
// expression with no operator character is an existence test.
func parse(expr string) Parsed {
	expr = strings.TrimSpace(expr)
	for _, op := range operators {
		if idx := strings.Index(expr, string(op)); idx >= 0 {
			return Parsed{
				LHS: strings.TrimSpace(expr[:idx]),
				Op:  op,
				RHS: strings.TrimSpace(expr[idx+len(op):]),
			}
		}
	}
	return Parsed{LHS: expr, Op: OpExists}
}

// Parse exposes the condition triple for diagnostics.
func Parse(expr string) Parsed {
	return parse(expr)
}

// Evaluate checks one condition expression against a context.
// Failure modes are closed: unresolvable paths, type mismatches, and
// invalid regex patterns all evaluate to false, never panic.
func Evaluate(expr string, ctx *Context) bool {
	if ctx == nil {
		ctx = &Context{}
	}
	p := parse(expr)
	val, resolved := ctx.Resolve(p.LHS)

	if p.Op == OpExists {
		return resolved && truthy(val)
	}

	// Comparisons against an unresolved LHS fail closed. Branch
	// negation happens above this layer, so an undefined path can
	// still satisfy a negated existence condition.
	if !resolved {
		return false
	}

	switch p.Op {
	case OpEQ, OpAssign:
		return equals(val, p.RHS)
	case OpNE:
		return !equals(val, p.RHS)
	case OpGT, OpLT, OpGE, OpLE:
		return compare(val, p.RHS, p.Op)
	case OpMatch:
		re, err := regexp.Compile(p.RHS)
		if err != nil {
			logging.Warn("invalid condition regex", "pattern", p.RHS, "error", err)
			return false
		}
		return re.MatchString(stringify(val))
	}
	return false
}

// truthy converts a resolved value to its boolean reading: bools are
// themselves, numbers are non-zero, strings are non-empty.
func truthy(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	}
	return val != nil
}

// equals compares a resolved value against a literal, numerically
// when both sides parse as numbers, else as case-insensitive strings.
func equals(val any, rhs string) bool {
	rhs = unquote(rhs)
	if ln, lok := numeric(val); lok {
		if rn, rok := numericLiteral(rhs); rok {
			return ln == rn
		}
	}
	return strings.EqualFold(stringify(val), rhs)
}

// compare applies an ordering operator numerically. HH:MM literals
// on either side convert to minutes since midnight. Non-numeric
// operands fail closed.
func compare(val any, rhs string, op Op) bool {
	ln, lok := numeric(val)
	rn, rok := numericLiteral(unquote(rhs))
	if !lok || !rok {
		return false
	}
	switch op {
	case OpGT:
		return ln > rn
	case OpLT:
		return ln < rn
	case OpGE:
		return ln >= rn
	case OpLE:
		return ln <= rn
	}
	return false
}

// numeric extracts a float from a resolved context value. String
// values parse as numbers or HH:MM times.
func numeric(val any) (float64, bool) {
	switch v := val.(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		return numericLiteral(v)
	}
	return 0, false
}

// numericLiteral parses an RHS literal: HH:MM converts to minutes
// since midnight, otherwise plain number syntax.
func numericLiteral(s string) (float64, bool) {
	if m := hhmm.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		return float64(h*60 + min), true
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func stringify(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
