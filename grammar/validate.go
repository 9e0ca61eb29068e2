package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	verr "github.com/nihei9/jpegen/error"
)

// SoftKeywordName is the pseudo token that matches any soft keyword.
const SoftKeywordName = "SOFT_KEYWORD"

// Keywords holds the keywords of a grammar in the order of their first appearance.
type Keywords struct {
	Hard []string
	Soft []string
}

// CollectKeywords finds single-quoted identifier literals (hard keywords) and double-quoted ones (soft keywords).
func CollectKeywords(g *Grammar) *Keywords {
	kws := &Keywords{
		Hard: []string{},
		Soft: []string{},
	}
	seenHard := map[string]struct{}{}
	seenSoft := map[string]struct{}{}
	InspectGrammar(g, func(_ *Rule, item Item) bool {
		l, ok := item.(*StringLeaf)
		if !ok || !l.IsKeyword() {
			return true
		}
		kw := l.Literal()
		if l.IsSoftKeyword() {
			if _, ok := seenSoft[kw]; !ok {
				seenSoft[kw] = struct{}{}
				kws.Soft = append(kws.Soft, kw)
			}
			return true
		}
		if _, ok := seenHard[kw]; !ok {
			seenHard[kw] = struct{}{}
			kws.Hard = append(kws.Hard, kw)
		}
		return true
	})
	return kws
}

// Validate checks rule names and references. `tokens` holds the token names a grammar may refer to, that is,
// the non-exact tokens of the token definitions. All problems are reported at once.
func Validate(g *Grammar, tokens map[string]struct{}) error {
	if len(g.Rules) == 0 {
		return verr.SpecErrors{
			&verr.SpecError{
				Cause: semErrNoRule,
			},
		}
	}

	var errs verr.SpecErrors
	for _, r := range g.Rules {
		if strings.HasPrefix(r.Name, "_") {
			errs = append(errs, &verr.SpecError{
				Cause:  semErrUnderscoreName,
				Detail: r.Name,
				Row:    r.Pos.Row,
				Col:    r.Pos.Col,
			})
		}
	}

	for _, r := range g.Rules {
		reported := map[string]struct{}{}
		Inspect(r.Rhs, func(item Item) bool {
			l, ok := item.(*NameLeaf)
			if !ok {
				return true
			}
			if _, ok := g.Rule(l.Value); ok {
				return true
			}
			if _, ok := tokens[l.Value]; ok || l.Value == SoftKeywordName {
				return true
			}
			if _, ok := reported[l.Value]; ok {
				return true
			}
			reported[l.Value] = struct{}{}

			detail := fmt.Sprintf("'%v' in rule '%v'", l.Value, r.Name)
			if s := suggestName(g, tokens, l.Value); s != "" {
				detail = fmt.Sprintf("%v (did you mean '%v'?)", detail, s)
			}
			errs = append(errs, &verr.SpecError{
				Cause:  semErrDanglingReference,
				Detail: detail,
				Row:    r.Pos.Row,
				Col:    r.Pos.Col,
			})
			return true
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// suggestName returns the rule or token name closest to a misspelled name, or an empty string when nothing is
// close enough.
func suggestName(g *Grammar, tokens map[string]struct{}, name string) string {
	candidates := make([]string, 0, len(g.Rules)+len(tokens))
	for _, r := range g.Rules {
		candidates = append(candidates, r.Name)
	}
	for t := range tokens {
		candidates = append(candidates, t)
	}
	sort.Strings(candidates)

	threshold := len(name) / 3
	if threshold < 1 {
		threshold = 1
	}
	best := ""
	bestDist := threshold + 1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
