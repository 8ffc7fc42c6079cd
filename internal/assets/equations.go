// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assets

import (
	"regexp"
	"sort"
	"strings"

	"github.com/meshintel/corpus-report/internal/textutil"
	"github.com/meshintel/corpus-report/pkg/types"
)

// Equation-candidate mining is a keyword/regex heuristic, kept as explicit
// scoring rules so behavior is reproducible. Lines scoring below
// minEquationScore are discarded.
const (
	minEquationScore  = 2
	maxEquationLen    = 220
	minEquationLen    = 8
	equationKeepLimit = 12
)

var (
	// operatorKeywords signal differential operators and solver vocabulary.
	operatorKeywords = []string{"d/dt", "partial", "nabla", "laplac", "jacobian", "cfl", "reynolds"}

	// symbolTokens are common physics symbol spellings; a weak +1 signal.
	symbolTokens = []string{"omega", "psi", "eta", "nu", "u", "v", "h"}

	// equationNumberRe matches a trailing "(4)" or "(3.2)" equation number.
	equationNumberRe = regexp.MustCompile(`\(\d+(\.\d+)?\)$`)

	// mathSymbolRe matches mathematical unicode operators and Greek symbols.
	mathSymbolRe = regexp.MustCompile("[∂∇ΔωψνηΣ]")

	arithmeticRe = regexp.MustCompile(`[+\-*/]`)
)

// ScoreEquationLine rates one whitespace-normalized line. Zero means the
// line is not an equation candidate at all (no "=" or out of length bounds).
func ScoreEquationLine(line string) int {
	if !strings.Contains(line, "=") {
		return 0
	}
	if n := len(line); n < minEquationLen || n > maxEquationLen {
		return 0
	}

	score := 0
	lower := strings.ToLower(line)
	for _, kw := range operatorKeywords {
		if strings.Contains(lower, kw) {
			score += 2
			break
		}
	}
	for _, tok := range symbolTokens {
		if strings.Contains(lower, tok) {
			score++
			break
		}
	}
	if equationNumberRe.MatchString(line) {
		score += 2
	}
	if mathSymbolRe.MatchString(line) {
		score += 2
	}
	if arithmeticRe.MatchString(line) {
		score++
	}
	return score
}

// MineEquations scans every page line for equation-like excerpts, suppresses
// normalized duplicates, and keeps the top candidates ordered by score
// descending then page ascending.
func MineEquations(pages []string, limit int) []types.EquationCandidate {
	var candidates []types.EquationCandidate
	seen := make(map[string]bool)

	for pageIdx, pageText := range pages {
		for _, rawLine := range strings.Split(pageText, "\n") {
			line := textutil.CleanWhitespace(rawLine)
			score := ScoreEquationLine(line)
			if score < minEquationScore {
				continue
			}

			norm := strings.ReplaceAll(strings.ToLower(line), " ", "")
			if seen[norm] {
				continue
			}
			seen[norm] = true

			candidates = append(candidates, types.EquationCandidate{
				Equation: line,
				Page:     pageIdx + 1,
				Score:    score,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Page < candidates[j].Page
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
