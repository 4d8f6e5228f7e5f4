// Package codeblock extracts fenced code blocks from markdown, so assistant
// replies can offer their snippets for execution.
package codeblock

import (
	"regexp"
	"strings"
)

// Block is one fenced code block, in order of appearance.
type Block struct {
	Language string
	Code     string
}

var fenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9+#._-]*)[ \t]*\n(.*?)```")

// Extract returns the fenced code blocks in text. A fence with no language
// tag is labeled "text". Surrounding whitespace inside the fence is trimmed.
func Extract(text string) []Block {
	matches := fenceRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	blocks := make([]Block, 0, len(matches))
	for _, m := range matches {
		lang := strings.ToLower(m[1])
		if lang == "" {
			lang = "text"
		}
		blocks = append(blocks, Block{
			Language: lang,
			Code:     strings.TrimSpace(m[2]),
		})
	}
	return blocks
}

// Lines counts the lines in a block's code, for display.
func (b Block) Lines() int {
	if b.Code == "" {
		return 0
	}
	return strings.Count(b.Code, "\n") + 1
}
