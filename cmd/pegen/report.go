package main

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/nihei9/jpegen/grammar"
	"github.com/nihei9/jpegen/spec"
	"github.com/olekukonko/tablewriter"
)

type grammarReport struct {
	Rules []*grammar.Rule
	SCCs  [][]string

	graph grammar.FirstGraph
	first grammar.FirstSets
}

func newGrammarReport(gram *grammar.Grammar, lr *grammar.LeftRecursion, first grammar.FirstSets) *grammarReport {
	return &grammarReport{
		Rules: gram.Rules,
		SCCs:  lr.SCCs,
		graph: lr.Graph,
		first: first,
	}
}

const reportTemplate = `# Grammar

{{ range .Rules -}}
{{ indent .String }}
{{ end }}
# Rules

{{ ruleTable }}
# First Graph

{{ range .Rules -}}
{{ with firstEdges .Name }}{{ . }}
{{ end -}}
{{ end }}
# First SCCs

{{ range .SCCs -}}
{{ printSCC . }}
{{ end -}}
`

func writeGrammarReport(w io.Writer, report *grammarReport) error {
	rules := map[string]*grammar.Rule{}
	for _, r := range report.Rules {
		rules[r.Name] = r
	}

	fns := template.FuncMap{
		"indent": func(s string) string {
			return "  " + strings.ReplaceAll(s, "\n", "\n  ")
		},
		"ruleTable": func() string {
			var b strings.Builder
			table := tablewriter.NewWriter(&b)
			table.SetAutoFormatHeaders(false)
			table.SetAutoWrapText(false)
			table.SetHeader([]string{"Rule", "Type", "Memo", "Nullable", "Left-recursive", "Leader", "First set"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, r := range report.Rules {
				table.Append([]string{
					r.Name,
					r.Type,
					yesNo(r.Memo),
					yesNo(r.Nullable),
					yesNo(r.LeftRecursive),
					yesNo(r.Leader),
					strings.Join(report.first[r.Name], " "),
				})
			}
			table.Render()
			return b.String()
		},
		"firstEdges": func(name string) string {
			dsts, ok := report.graph[name]
			if !ok {
				return ""
			}
			if len(dsts) == 0 {
				return fmt.Sprintf("  %v ->", name)
			}
			return fmt.Sprintf("  %v -> %v", name, strings.Join(dsts, ", "))
		},
		"printSCC": func(scc []string) string {
			s := fmt.Sprintf("  [%v]", strings.Join(scc, " "))
			if len(scc) > 1 {
				var leaders []string
				for _, name := range scc {
					if rules[name].Leader {
						leaders = append(leaders, name)
					}
				}
				return fmt.Sprintf("%v  # Indirectly left-recursive; leaders: %v", s, strings.Join(leaders, ", "))
			}
			for _, dst := range report.graph[scc[0]] {
				if dst == scc[0] {
					return s + "  # Left-recursive"
				}
			}
			return s
		},
	}

	tmpl, err := template.New("").Funcs(fns).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, report)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

// writeStats prints how long the generation took and how much of the grammar file was read.
func writeStats(w io.Writer, tok *spec.Tokenizer, elapsed time.Duration) {
	lines := tok.Lines()
	sec := elapsed.Seconds()
	fmt.Fprintf(w, "Total time: %.3f sec; %v lines", sec, lines)
	if sec > 0 {
		fmt.Fprintf(w, "; %.0f lines/sec", float64(lines)/sec)
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Caches sizes:\n")
	fmt.Fprintf(w, "  token array : %10v\n", tok.Count())
}
