// Package grammar validates veil statement lines against the keyword
// specification table: required zones, operator ordering, bracket
// balance, and hierarchy structure.
package grammar

// Bucket is the execution priority class of a keyword. Lower buckets
// execute first.
type Bucket int

// Bucket constants, in execution order.
const (
	BucketVisual      Bucket = 1
	BucketLayout      Bucket = 2
	BucketAnimation   Bucket = 3
	BucketInteraction Bucket = 4
	BucketState       Bucket = 5
)

// String returns the bucket's category name.
func (b Bucket) String() string {
	switch b {
	case BucketVisual:
		return "visual"
	case BucketLayout:
		return "layout"
	case BucketAnimation:
		return "animation"
	case BucketInteraction:
		return "interaction"
	case BucketState:
		return "state"
	}
	return "unknown"
}

// IsValid returns true for the defined bucket range.
func (b Bucket) IsValid() bool {
	return b >= BucketVisual && b <= BucketState
}

// Zone is a syntactic region of a statement.
type Zone string

// Statement zones.
const (
	ZoneDeclaration Zone = "declaration"
	ZoneTarget      Zone = "target"
	ZoneEffect      Zone = "effect"
	ZoneOutput      Zone = "output"
)

// KeywordSpec describes one supported keyword: the zones a statement
// using it must populate and the bucket its instructions land in.
type KeywordSpec struct {
	Keyword  string
	Bucket   Bucket
	Requires []Zone
}

// RequiresZone returns true if the keyword requires the given zone.
func (ks KeywordSpec) RequiresZone(z Zone) bool {
	for _, req := range ks.Requires {
		if req == z {
			return true
		}
	}
	return false
}

// keywordTable maps each supported keyword to its specification.
// The declaration zone is implicit: every statement has one.
var keywordTable = map[string]KeywordSpec{
	// Visual: obscuring and appearance changes.
	"set":    {Keyword: "set", Bucket: BucketVisual, Requires: []Zone{ZoneTarget, ZoneEffect}},
	"hide":   {Keyword: "hide", Bucket: BucketVisual, Requires: []Zone{ZoneTarget}},
	"show":   {Keyword: "show", Bucket: BucketVisual, Requires: []Zone{ZoneTarget}},
	"mask":   {Keyword: "mask", Bucket: BucketVisual, Requires: []Zone{ZoneTarget, ZoneEffect}},
	"blur":   {Keyword: "blur", Bucket: BucketVisual, Requires: []Zone{ZoneTarget, ZoneEffect}},
	"redact": {Keyword: "redact", Bucket: BucketVisual, Requires: []Zone{ZoneTarget}},

	// Layout: geometry and flow changes.
	"collapse": {Keyword: "collapse", Bucket: BucketLayout, Requires: []Zone{ZoneTarget}},
	"indent":   {Keyword: "indent", Bucket: BucketLayout, Requires: []Zone{ZoneTarget, ZoneEffect}},
	"align":    {Keyword: "align", Bucket: BucketLayout, Requires: []Zone{ZoneTarget, ZoneEffect}},

	// Animation: transitions between states.
	"fade":  {Keyword: "fade", Bucket: BucketAnimation, Requires: []Zone{ZoneTarget, ZoneEffect}},
	"pulse": {Keyword: "pulse", Bucket: BucketAnimation, Requires: []Zone{ZoneTarget, ZoneEffect}},
	"shift": {Keyword: "shift", Bucket: BucketAnimation, Requires: []Zone{ZoneTarget, ZoneEffect}},

	// Interaction: pointer and focus driven behavior.
	"reveal": {Keyword: "reveal", Bucket: BucketInteraction, Requires: []Zone{ZoneTarget}},
	"toggle": {Keyword: "toggle", Bucket: BucketInteraction, Requires: []Zone{ZoneTarget}},
	"guard":  {Keyword: "guard", Bucket: BucketInteraction, Requires: []Zone{ZoneTarget, ZoneEffect}},

	// State: conditionals and persistence markers.
	"if":       {Keyword: "if", Bucket: BucketState, Requires: []Zone{ZoneTarget}},
	"remember": {Keyword: "remember", Bucket: BucketState, Requires: []Zone{ZoneTarget, ZoneEffect}},
	"mark":     {Keyword: "mark", Bucket: BucketState, Requires: []Zone{ZoneTarget, ZoneOutput}},

	// Branch labels group the children of a conditional statement.
	"true":  {Keyword: "true", Bucket: BucketState, Requires: []Zone{ZoneTarget}},
	"false": {Keyword: "false", Bucket: BucketState, Requires: []Zone{ZoneTarget}},
	"else":  {Keyword: "else", Bucket: BucketState, Requires: []Zone{ZoneTarget}},
}

// Lookup returns the specification for a keyword. Unknown keywords
// report ok=false; callers treat them as forward-compatible warnings
// and default them to the visual bucket.
func Lookup(keyword string) (KeywordSpec, bool) {
	ks, ok := keywordTable[keyword]
	return ks, ok
}

// BucketFor resolves a keyword to its bucket. Unknown keywords
// default to the visual bucket so their instructions still execute.
func BucketFor(keyword string) Bucket {
	if ks, ok := keywordTable[keyword]; ok {
		return ks.Bucket
	}
	return BucketVisual
}

// IsConditional returns true for the IF form.
func IsConditional(keyword string) bool {
	return keyword == "if"
}

// IsBranchLabel returns true for the branch labels that group a
// conditional's children.
func IsBranchLabel(keyword string) bool {
	return keyword == "true" || keyword == "false" || keyword == "else"
}

// Keywords returns all supported keywords, for diagnostics.
func Keywords() []string {
	out := make([]string, 0, len(keywordTable))
	for k := range keywordTable {
		out = append(out, k)
	}
	return out
}
