package validate

import (
	"fmt"
	"strings"
)

var closers = map[rune]rune{'}': '{', ')': '(', ']': '['}

// checkBraces is a plain bracket counter. It does not know about strings
// or comments, so a stray brace in a literal is reported too.
func checkBraces(src string) []Issue {
	type open struct {
		r    rune
		line int
	}
	var stack []open
	var issues []Issue

	line := 1
	for _, r := range src {
		switch r {
		case '\n':
			line++
		case '{', '(', '[':
			stack = append(stack, open{r, line})
		case '}', ')', ']':
			want := closers[r]
			if len(stack) == 0 || stack[len(stack)-1].r != want {
				issues = append(issues, Issue{
					Category: CategoryUnmatchedBraces,
					Message:  fmt.Sprintf("Unmatched braces: unexpected %q on line %d", r, line),
				})
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}
	for _, o := range stack {
		issues = append(issues, Issue{
			Category: CategoryUnmatchedBraces,
			Message:  fmt.Sprintf("Unmatched braces: %q opened on line %d is never closed", o.r, o.line),
		})
	}
	return issues
}

// checkIndentation requires every line ending in a colon to be followed by
// a more indented line. Blank lines, comments and the body of
// triple-quoted strings are skipped.
func checkIndentation(src string) []Issue {
	type codeLine struct {
		no     int
		indent int
		text   string
		// open is set when the line ends inside a triple-quoted string.
		open bool
	}
	var (
		lines    []codeLine
		inString bool
	)
	for i, raw := range strings.Split(src, "\n") {
		text := strings.TrimSpace(raw)
		started := inString
		if strings.Count(text, `"""`)%2 == 1 {
			inString = !inString
		}
		if started || text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		lines = append(lines, codeLine{no: i + 1, indent: indentWidth(raw), text: text, open: inString})
	}

	var issues []Issue
	for i, l := range lines {
		if l.open || !strings.HasSuffix(l.text, ":") {
			continue
		}
		if i+1 >= len(lines) || lines[i+1].indent <= l.indent {
			issues = append(issues, Issue{
				Category: CategoryIndentation,
				Message:  fmt.Sprintf("Indentation error: expected an indented block after line %d", l.no),
			})
		}
	}
	return issues
}

// indentWidth counts leading whitespace, a tab as four columns.
func indentWidth(s string) int {
	w := 0
	for _, r := range s {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}

func hasEntryPoint(src, entry string) bool {
	if entry == "" {
		return true
	}
	for _, l := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(l), entry) {
			return true
		}
	}
	return false
}
