// Package knowledge holds the static Excel knowledge base: worksheet
// functions, feature walkthroughs, VBA templates, best practices and FAQ
// entries. The set is read-mostly; chat never mutates it and only the FAQ
// vote counter changes at runtime.
package knowledge

// Entry kinds.
const (
	KindFunction = "function"
	KindFeature  = "feature"
	KindVBA      = "vba"
	KindPractice = "practice"
	KindFAQ      = "faq"
)

// Function categories.
const (
	CategoryMath    = "math"
	CategoryText    = "text"
	CategoryLogical = "logical"
	CategoryLookup  = "lookup"
	CategoryDate    = "date"
	CategoryStats   = "stats"
)

// Feature / VBA / practice / FAQ categories.
const (
	CategoryAnalysis   = "analysis"
	CategoryFormatting = "formatting"
	CategoryAutomation = "automation"
	CategoryGeneral    = "general"
)

// Entry is one knowledge record. Name is unique within a kind for functions
// and FAQ items. Keywords carry match aliases, including Japanese ones, for
// the responder's substring scan.
type Entry struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`

	// Function fields.
	Syntax  string `json:"syntax,omitempty"`
	Example string `json:"example,omitempty"`

	// Feature fields.
	Steps []string `json:"steps,omitempty"`

	// VBA template fields.
	Code string `json:"code,omitempty"`

	// Best-practice fields.
	Dos   []string `json:"dos,omitempty"`
	Donts []string `json:"donts,omitempty"`

	// FAQ fields.
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Votes    int    `json:"votes,omitempty"`
}

func ValidKind(kind string) bool {
	switch kind {
	case KindFunction, KindFeature, KindVBA, KindPractice, KindFAQ:
		return true
	}
	return false
}
