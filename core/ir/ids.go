package ir

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// InstructionID derives the stable identifier for an instruction
// from its block identity, keyword, and source line. The triple is
// the canonical identity: no volatile suffix is mixed in, so
// recompiling unchanged source yields identical IDs and downstream
// consumers can diff instruction sets across compiles.
func InstructionID(blockID, keyword string, line int) string {
	h := blake3.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d", blockID, keyword, line)
	sum := h.Sum(nil)
	return "ins-" + hex.EncodeToString(sum[:8])
}
