package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// token is a syntax-highlighted chunk of text.
type token struct {
	Text  string
	Color string // hex color, empty for default
}

// highlightJSON splits JSON source into lines of colored tokens.
func highlightJSON(source string) [][]token {
	lines := strings.Split(source, "\n")
	lexer := lexers.Get("json")
	if lexer == nil {
		return plainTokens(lines)
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return plainTokens(lines)
	}

	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	result := make([][]token, 0, len(lines))
	var current []token
	for _, tok := range iterator.Tokens() {
		// Split tokens that span multiple lines
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				result = append(result, current)
				current = nil
			}
			if part != "" {
				current = append(current, token{Text: part, Color: tokenColor(style, tok.Type)})
			}
		}
	}
	result = append(result, current)
	return result
}

func plainTokens(lines []string) [][]token {
	out := make([][]token, len(lines))
	for i, l := range lines {
		out[i] = []token{{Text: l}}
	}
	return out
}

func tokenColor(style *chroma.Style, tt chroma.TokenType) string {
	entry := style.Get(tt)
	if entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}

// renderTokens renders highlighted lines for the terminal.
func renderTokens(lines [][]token) string {
	var b strings.Builder
	for i, line := range lines {
		for _, tok := range line {
			if tok.Color != "" {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(tok.Text))
			} else {
				b.WriteString(tok.Text)
			}
		}
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
