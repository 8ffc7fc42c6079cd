// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Remote API size limits. Text runs, paragraph sub-blocks and equation
// expressions are clamped so no single block exceeds what the API accepts.
const (
	maxRunLen       = 1800
	maxParagraphLen = maxRunLen * 8
	maxEquationLen  = 1000
	maxTitleLen     = 200
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,3})\s+(.*)$`)
	bulletRe   = regexp.MustCompile(`^-\s+(.*)$`)
	numberedRe = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	imageRe    = regexp.MustCompile(`^!\[(.*?)\]\((.*?)\)$`)
)

// BlockType identifies one node kind in the parsed block list.
type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockBullet    BlockType = "bulleted_list_item"
	BlockNumbered  BlockType = "numbered_list_item"
	BlockCode      BlockType = "code"
	BlockEquation  BlockType = "equation"
	BlockImage     BlockType = "image"
)

// Block is one typed node derived from the markdown by a single
// left-to-right scan. Image blocks carry either an external URL or an
// unresolved local target; upload resolution happens at publish time, not
// during parsing.
type Block struct {
	Type BlockType

	// Text is the heading/list/paragraph text or the code body.
	Text string

	// Level is the heading level, 1 to 3. Deeper markdown headings are not
	// recognized and fall through to paragraphs.
	Level int

	// Language is the normalized code-block language.
	Language string

	// Caption is the image alt text or the code caption marker.
	Caption string

	// URL is set for external images; LocalTarget for local image files.
	URL         string
	LocalTarget string
}

// codeLanguages is the remote API's code-block language allow-list.
var codeLanguages = map[string]bool{
	"abap": true, "arduino": true, "bash": true, "basic": true, "c": true,
	"clojure": true, "coffeescript": true, "c++": true, "c#": true,
	"css": true, "dart": true, "diff": true, "docker": true, "elixir": true,
	"elm": true, "erlang": true, "flow": true, "fortran": true, "f#": true,
	"gherkin": true, "glsl": true, "go": true, "graphql": true,
	"groovy": true, "haskell": true, "html": true, "java": true,
	"javascript": true, "json": true, "julia": true, "kotlin": true,
	"latex": true, "less": true, "lisp": true, "livescript": true,
	"lua": true, "makefile": true, "markdown": true, "markup": true,
	"matlab": true, "mermaid": true, "nix": true, "objective-c": true,
	"ocaml": true, "pascal": true, "perl": true, "php": true,
	"plain text": true, "powershell": true, "prolog": true,
	"protobuf": true, "python": true, "r": true, "reason": true,
	"ruby": true, "rust": true, "sass": true, "scala": true,
	"scheme": true, "scss": true, "shell": true, "sql": true,
	"swift": true, "typescript": true, "vb.net": true, "verilog": true,
	"vhdl": true, "visual basic": true, "webassembly": true, "xml": true,
	"yaml": true,
}

// NormalizeLanguage maps a fence language tag onto the allow-list, aliasing
// common shell and PowerShell spellings. Unknown languages become
// "plain text".
func NormalizeLanguage(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if codeLanguages[lang] {
		return lang
	}
	switch lang {
	case "sh", "zsh":
		return "shell"
	case "ps1", "pwsh":
		return "powershell"
	}
	return "plain text"
}

// ParseMarkdown scans the markdown once, left to right, into a flat ordered
// block list. Paragraph runs longer than the per-block budget are split into
// consecutive paragraph blocks.
func ParseMarkdown(markdown string) []Block {
	lines := strings.Split(markdown, "\n")
	var blocks []Block

	for i := 0; i < len(lines); {
		stripped := strings.TrimSpace(lines[i])
		if stripped == "" {
			i++
			continue
		}

		if strings.HasPrefix(stripped, "```") {
			var block Block
			block, i = parseFence(lines, i, stripped)
			blocks = append(blocks, block)
			continue
		}

		if strings.HasPrefix(stripped, "$$") {
			var expr string
			expr, i = parseEquation(lines, i, stripped)
			if expr != "" {
				blocks = append(blocks, Block{Type: BlockEquation, Text: truncate(expr, maxEquationLen)})
			}
			continue
		}

		if m := headingRe.FindStringSubmatch(stripped); m != nil {
			blocks = append(blocks, Block{Type: BlockHeading, Level: len(m[1]), Text: strings.TrimSpace(m[2])})
			i++
			continue
		}

		if m := imageRe.FindStringSubmatch(stripped); m != nil {
			alt := strings.TrimSpace(m[1])
			if alt == "" {
				alt = "figure"
			}
			target := strings.TrimSpace(m[2])
			block := Block{Type: BlockImage, Caption: alt}
			if isExternalURL(target) {
				block.URL = target
			} else {
				block.LocalTarget = target
			}
			blocks = append(blocks, block)
			i++
			continue
		}

		if m := bulletRe.FindStringSubmatch(stripped); m != nil {
			blocks = append(blocks, Block{Type: BlockBullet, Text: strings.TrimSpace(m[1])})
			i++
			continue
		}

		if m := numberedRe.FindStringSubmatch(stripped); m != nil {
			blocks = append(blocks, Block{Type: BlockNumbered, Text: strings.TrimSpace(m[1])})
			i++
			continue
		}

		// Paragraph (and table) fallback: join contiguous plain lines.
		var text string
		text, i = parseParagraph(lines, i, stripped)
		for _, part := range splitByLen(text, maxParagraphLen) {
			blocks = append(blocks, Block{Type: BlockParagraph, Text: part})
		}
	}
	return blocks
}

func parseFence(lines []string, i int, opening string) (Block, int) {
	language := strings.TrimSpace(strings.TrimPrefix(opening, "```"))
	if language == "" {
		language = "plain text"
	}

	var body []string
	i++
	for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
		body = append(body, lines[i])
		i++
	}
	if i < len(lines) {
		i++ // closing fence
	}

	block := Block{
		Type:     BlockCode,
		Text:     strings.Join(body, "\n"),
		Language: NormalizeLanguage(language),
	}
	if strings.ToLower(strings.TrimSpace(language)) == "mermaid" {
		block.Caption = "mermaid"
	}
	return block, i
}

func parseEquation(lines []string, i int, stripped string) (string, int) {
	if strings.HasSuffix(stripped, "$$") && len(stripped) > 4 {
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(stripped, "$$"), "$$")), i + 1
	}

	var parts []string
	i++
	for i < len(lines) && strings.TrimSpace(lines[i]) != "$$" {
		if line := strings.TrimSpace(lines[i]); line != "" {
			parts = append(parts, lines[i])
		}
		i++
	}
	if i < len(lines) {
		i++ // closing marker
	}
	return strings.TrimSpace(strings.Join(parts, " ")), i
}

func parseParagraph(lines []string, i int, first string) (string, int) {
	parts := []string{first}
	i++
	for i < len(lines) {
		next := strings.TrimSpace(lines[i])
		if next == "" || strings.HasPrefix(next, "```") || strings.HasPrefix(next, "#") ||
			strings.HasPrefix(next, "$$") ||
			bulletRe.MatchString(next) || numberedRe.MatchString(next) || imageRe.MatchString(next) {
			break
		}
		parts = append(parts, next)
		i++
	}
	return strings.Join(parts, " "), i
}

func isExternalURL(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// splitByLen cuts text into consecutive pieces of at most n bytes, never
// splitting inside a UTF-8 rune: each cut point walks back to a rune
// boundary so every piece is valid on its own.
func splitByLen(text string, n int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var parts []string
	for len(text) > n {
		cut := n
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = n
		}
		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	return append(parts, text)
}

// truncate clamps s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
