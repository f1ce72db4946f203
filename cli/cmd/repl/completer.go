package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/ytsub/script"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "set", "unset", "entry", "edit", "clear", "quit"}

// functionSigil introduces a function call in a template expression.
const functionSigil = '%'

// isWordBoundary reports whether r ends an identifier in template syntax.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '{', '}', '(', ')', ',', functionSigil, '"', '\'':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor and its byte boundaries within
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// isFunctionWord reports whether the word starting at wordStart names a
// function, that is, it directly follows the function sigil.
func isFunctionWord(input string, wordStart int) bool {
	if wordStart == 0 {
		return false
	}

	r, _ := utf8.DecodeLastRuneInString(input[:wordStart])

	return r == functionSigil
}

// candidates returns the completions for the word starting at wordStart.
func candidates(s *Session, input string, wordStart int) []string {
	if isFunctionWord(input, wordStart) {
		return script.Functions().Names()
	}

	return s.Names()
}

// computeMatches calculates the fuzzy matches for the word at the cursor,
// ranked best first. An empty word lists every function after the sigil and
// nothing elsewhere, so the hint line stays visible.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	cands []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	if m.mode == modeCtrl {
		// Only the command name completes.
		if word == "" || strings.ContainsAny(input[:wordStart], " \t") {
			return nil, nil, wordStart, wordEnd
		}

		cands = ctrlCommands
	} else {
		cands = candidates(m.session, input, wordStart)

		if word == "" {
			if !isFunctionWord(input, wordStart) || len(cands) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(cands))
			for i, c := range cands {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, cands, wordStart, wordEnd
		}
	}

	if len(cands) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, cands), cands, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// width. The selected candidate uses the selected style while tab-cycling.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		last := i == len(matches)-1

		reserve := ellipsisWidth
		if last {
			reserve = 0
		}

		if i > 0 && used+entryWidth+reserve > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted. Functions get a "()" suffix that is not inserted on
// completion.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if script.IsFunction(match.Str) {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// preview returns the template of a declared variable shortened to one line,
// or "" for metadata variables.
func preview(s *Session, name string) string {
	const limit = 40

	text, ok := s.Template(name)
	if !ok {
		return ""
	}

	text = strings.ReplaceAll(text, "\n", " ")

	if utf8.RuneCountInString(text) > limit {
		r := []rune(text)
		text = string(r[:limit-3]) + "..."
	}

	return text
}
