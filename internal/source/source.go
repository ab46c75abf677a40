// Package source finds veil statement blocks embedded inside
// XML/HTML documents. Two embeddings are recognized: <veil> elements
// with a block attribute, and comments of the form
//
//	<!--veil:block-id
//	:: hide // content[all]
//	-->
//
// Extraction is a host-boundary concern: the compiler core only ever
// sees the (blockID, lines) pairs this package returns.
package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/veildoc/veil/core/errors"
	"github.com/veildoc/veil/core/token"
)

// Block is one extracted statement block.
type Block struct {
	ID    string   `json:"id"`
	Lines []string `json:"lines"`
}

// commentPrefix marks a veil comment block.
const commentPrefix = "veil:"

var (
	veilElems = xpath.MustCompile("//veil")
	comments  = xpath.MustCompile("//comment()")
)

// Extract parses an XML/HTML document and returns its veil statement
// blocks in document order. Blocks without an explicit identifier
// get a positional one.
func Extract(r io.Reader) ([]Block, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errors.NewParse("XML", "", err.Error())
	}

	var blocks []Block

	for i, node := range xmlquery.QuerySelectorAll(doc, veilElems) {
		id := node.SelectAttr("block")
		if id == "" {
			id = fmt.Sprintf("veil-block-%d", i+1)
		}
		if lines := statementLines(node.InnerText()); len(lines) > 0 {
			blocks = append(blocks, Block{ID: id, Lines: lines})
		}
	}

	for _, node := range xmlquery.QuerySelectorAll(doc, comments) {
		text := strings.TrimSpace(node.Data)
		if !strings.HasPrefix(text, commentPrefix) {
			continue
		}
		body := text[len(commentPrefix):]
		id, rest, _ := strings.Cut(body, "\n")
		id = strings.TrimSpace(id)
		if id == "" {
			id = fmt.Sprintf("veil-comment-%d", len(blocks)+1)
		}
		if lines := statementLines(rest); len(lines) > 0 {
			blocks = append(blocks, Block{ID: id, Lines: lines})
		}
	}

	return blocks, nil
}

// ExtractFile extracts statement blocks from a document on disk.
func ExtractFile(path string) ([]Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	blocks, err := Extract(f)
	if err != nil {
		return nil, errors.Wrapf(err, "extract %s", path)
	}
	return blocks, nil
}

// statementLines keeps the lines that open with a statement
// operator. Document-level indentation common to every line is
// stripped so only the author's relative indentation encodes depth.
func statementLines(text string) []string {
	var out []string
	minIndent := -1
	for _, line := range strings.Split(text, "\n") {
		if !token.IsStatement(line) {
			continue
		}
		line = strings.TrimRight(line, " \t\r")
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
		out = append(out, line)
	}
	if minIndent > 0 {
		for i, line := range out {
			out[i] = line[minIndent:]
		}
	}
	return out
}
