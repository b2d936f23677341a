package extract

import (
	"regexp"
	"strings"
)

const fence = "```"

var thinkPattern = regexp.MustCompile(`(?is)<think>.*?</think>`)

// Block is a fenced span located in a model response.
type Block struct {
	Lang string
	Body string
}

// StripReasoning removes <think>...</think> sections some models prepend.
func StripReasoning(raw string) string {
	return strings.TrimSpace(thinkPattern.ReplaceAllString(raw, ""))
}

// LocateFence returns the first complete fenced block in raw. When several
// blocks exist, the first one tagged with a preferred language wins. Prose
// around the blocks is ignored. An opening fence without a closing one is
// not a block.
func LocateFence(raw string, preferred ...string) (Block, error) {
	blocks := fencedBlocks(raw)
	if len(blocks) == 0 {
		return Block{}, ErrNoFencedBlock
	}

	for _, lang := range preferred {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			continue
		}
		for _, block := range blocks {
			if block.Lang == lang {
				return block, nil
			}
		}
	}

	return blocks[0], nil
}

func fencedBlocks(raw string) []Block {
	var blocks []Block
	rest := raw
	for {
		open := strings.Index(rest, fence)
		if open == -1 {
			return blocks
		}
		rest = rest[open+len(fence):]

		header, body, inline := rest, "", false
		if nl := strings.IndexByte(rest, '\n'); nl != -1 {
			header = rest[:nl]
			body = rest[nl+1:]
		}
		if strings.Contains(header, fence) {
			inline = true
			body = header
		} else if tag := strings.TrimSpace(header); tag != "" && !isLangTag(tag) {
			// Payload starts on the fence line.
			header, body = "", rest
		}

		closeIdx := strings.Index(body, fence)
		if closeIdx == -1 {
			return blocks
		}

		var block Block
		if inline {
			block = inlineBlock(body[:closeIdx])
			rest = rest[closeIdx+len(fence):]
		} else {
			block = Block{
				Lang: strings.ToLower(strings.TrimSpace(header)),
				Body: strings.TrimSpace(body[:closeIdx]),
			}
			rest = body[closeIdx+len(fence):]
		}
		if block.Body != "" {
			blocks = append(blocks, block)
		}
	}
}

func inlineBlock(content string) Block {
	content = strings.TrimSpace(content)
	if idx := strings.IndexAny(content, " \t"); idx != -1 {
		lang := content[:idx]
		if isLangTag(lang) {
			return Block{Lang: strings.ToLower(lang), Body: strings.TrimSpace(content[idx:])}
		}
	}
	return Block{Body: content}
}

func isLangTag(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
