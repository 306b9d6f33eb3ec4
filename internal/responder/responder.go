// Package responder converts free-text chat input into a knowledge-grounded
// reply. Matching is deliberately plain substring containment in either
// direction; the trigger semantics are part of the observable contract and
// must not be upgraded to fuzzy or semantic matching.
package responder

import (
	"context"
	"fmt"
	"strings"

	"excelbot-backend-go/internal/knowledge"
	"excelbot-backend-go/internal/store"
)

// Reply is one bot turn. Formulas carries the syntax strings of matched
// functions; VBACode is set only when an automation trigger fired.
type Reply struct {
	Text              string   `json:"text"`
	Formulas          []string `json:"formulas"`
	VBACode           string   `json:"vbaCode,omitempty"`
	MatchedEntryCount int      `json:"matchedEntryCount"`
}

// OutOfDomainMessage is returned verbatim when the domain gate rejects the
// input. Absence of an Excel keyword is a policy outcome, not an error.
const OutOfDomainMessage = "I can only help with Excel questions — functions, features, formulas and VBA. " +
	`Try something like "how to use SUM" or "VBA to delete empty rows".`

const notFoundMessage = "I could not find a matching entry for that. " +
	`You can ask about specific functions ("how to use VLOOKUP"), features ("pivot table"), or request VBA ("macro to copy a sheet").`

// domainKeywords is the hard gate: a message must contain at least one of
// these (or a known function name) to be treated as an Excel question.
var domainKeywords = []string{
	"excel", "エクセル",
	"vba", "macro", "マクロ",
	"function", "関数",
	"formula", "数式",
	"spreadsheet", "worksheet", "sheet", "シート",
	"cell", "セル",
	"pivot", "ピボット",
	"chart", "graph", "グラフ",
	"filter", "フィルター",
	"workbook", "ブック",
}

// automationTriggers switch the reply into VBA template selection.
var automationTriggers = []string{"vba", "macro", "マクロ", "automate", "automation", "自動"}

const maxFunctionBlocks = 3

// Responder scans the knowledge store per request. The store is a bounded
// in-memory or indexed set, so the linear pass is cheap by construction.
type Responder struct {
	Knowledge store.KnowledgeStore
}

func New(ks store.KnowledgeStore) *Responder {
	return &Responder{Knowledge: ks}
}

// Respond never fails for unmatched input; the only error source is the
// store itself.
func (r *Responder) Respond(ctx context.Context, message string) (Reply, error) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return Reply{Text: OutOfDomainMessage}, nil
	}

	entries, err := r.Knowledge.List(ctx)
	if err != nil {
		return Reply{}, err
	}

	if !r.inDomain(message, msg, entries) {
		return Reply{Text: OutOfDomainMessage}, nil
	}

	matched := matchEntries(msg, entries)
	reply := compose(msg, matched)

	if containsAny(msg, automationTriggers) {
		tmpl := selectTemplate(msg, entries)
		if tmpl != nil {
			reply.VBACode = tmpl.Code
			reply.Text = appendSection(reply.Text, fmt.Sprintf("VBA template: %s\n%s", tmpl.Name, tmpl.Description))
		} else {
			reply.VBACode = genericSkeleton(message)
			reply.Text = appendSection(reply.Text, "No ready-made template matched, so here is a skeleton to start from.")
		}
	}

	if reply.Text == "" {
		reply.Text = notFoundMessage
	}
	return reply, nil
}

// inDomain applies the gate against the fixed keyword set, then against
// function names. A function name only opens the gate when it appears the way
// people write Excel functions — uppercase ("how to use SUM") or followed by
// an opening paren — so ordinary words like "today" do not leak chatter in.
func (r *Responder) inDomain(raw, msg string, entries []knowledge.Entry) bool {
	if containsAny(msg, domainKeywords) {
		return true
	}
	for _, entry := range entries {
		if entry.Kind != knowledge.KindFunction {
			continue
		}
		if strings.Contains(raw, entry.Name) || strings.Contains(msg, strings.ToLower(entry.Name)+"(") {
			return true
		}
	}
	return false
}

// matchEntries keeps every entry whose name or any keyword intersects the
// message by substring in either direction.
func matchEntries(msg string, entries []knowledge.Entry) []knowledge.Entry {
	matched := make([]knowledge.Entry, 0, 8)
	for _, entry := range entries {
		if entry.Kind == knowledge.KindVBA {
			continue // templates are selected separately
		}
		if entryMatches(msg, entry) {
			matched = append(matched, entry)
		}
	}
	return matched
}

func entryMatches(msg string, entry knowledge.Entry) bool {
	if bidiContains(msg, strings.ToLower(entry.Name)) {
		return true
	}
	for _, keyword := range entry.Keywords {
		if bidiContains(msg, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// bidiContains tests substring containment in either direction. Fragments
// shorter than 3 bytes only match message-side to keep "if" from matching
// every message containing the letter pair.
func bidiContains(msg, fragment string) bool {
	if fragment == "" {
		return false
	}
	if strings.Contains(msg, fragment) {
		return true
	}
	return len(msg) >= 3 && strings.Contains(fragment, msg)
}

func selectTemplate(msg string, entries []knowledge.Entry) *knowledge.Entry {
	var byName *knowledge.Entry
	for i := range entries {
		entry := &entries[i]
		if entry.Kind != knowledge.KindVBA {
			continue
		}
		for _, keyword := range entry.Keywords {
			if strings.Contains(msg, strings.ToLower(keyword)) {
				return entry
			}
		}
		if byName == nil && nameWordsInMessage(msg, entry) {
			byName = entry
		}
	}
	return byName
}

func nameWordsInMessage(msg string, entry *knowledge.Entry) bool {
	for _, word := range strings.Fields(strings.ToLower(entry.Name + " " + entry.Description)) {
		if len(word) >= 4 && strings.Contains(msg, word) {
			return true
		}
	}
	return false
}

func genericSkeleton(request string) string {
	request = strings.TrimSpace(request)
	// Cut on a rune boundary; byte slicing would split multi-byte input.
	if runes := []rune(request); len(runes) > 120 {
		request = string(runes[:120])
	}
	return fmt.Sprintf(`Sub CustomMacro()
    ' Task: %s
    Dim ws As Worksheet
    Set ws = ActiveSheet
    ' TODO: implement the steps for the task above
    MsgBox "Macro finished."
End Sub`, request)
}

func compose(msg string, matched []knowledge.Entry) Reply {
	var b strings.Builder
	formulas := []string{}
	functionBlocks := 0
	count := 0

	for _, entry := range matched {
		switch entry.Kind {
		case knowledge.KindFunction:
			if functionBlocks >= maxFunctionBlocks {
				continue
			}
			functionBlocks++
			count++
			fmt.Fprintf(&b, "【%s】\nSyntax: %s\n%s\nExample: %s\n\n", entry.Name, entry.Syntax, entry.Description, entry.Example)
			formulas = append(formulas, entry.Syntax)
		case knowledge.KindFeature:
			count++
			fmt.Fprintf(&b, "%s — %s\n", entry.Name, entry.Description)
			for i, step := range entry.Steps {
				fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
			}
			b.WriteString("\n")
		case knowledge.KindPractice:
			count++
			fmt.Fprintf(&b, "Best practice — %s:\n", entry.Name)
			for _, do := range entry.Dos {
				fmt.Fprintf(&b, "  ✓ %s\n", do)
			}
			for _, dont := range entry.Donts {
				fmt.Fprintf(&b, "  ✗ %s\n", dont)
			}
			b.WriteString("\n")
		case knowledge.KindFAQ:
			count++
			fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", entry.Question, entry.Answer)
		}
	}

	return Reply{
		Text:              strings.TrimSpace(b.String()),
		Formulas:          formulas,
		MatchedEntryCount: count,
	}
}

func appendSection(text, section string) string {
	if text == "" {
		return section
	}
	return text + "\n\n" + section
}

func containsAny(msg string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}
