package intake

// Document names one of the two structured intake forms.
type Document string

const (
	FundApplication Document = "fund_application"
	InterimSummary  Document = "interim_summary"
)

// Section is the typed body of one named part of an intake document.
type Section interface {
	// Fields exposes the section's values keyed by their JSON names.
	Fields() map[string]any
}

// Rule decides completion for one section. A section uses either a list of
// required fields or a named has-any-content check, never both.
type Rule struct {
	Required []string
	// ContentName names the has-any-content check in messages.
	ContentName string
	HasContent  func(fields map[string]any) bool
}

// Progress reports the section's completion under the rule. A has-any-content
// section counts as a single field.
func (r Rule) Progress(fields map[string]any) Progress {
	if r.HasContent != nil {
		if r.HasContent(fields) {
			return progress(1, 1)
		}
		return progress(0, 1)
	}
	return Completion(fields, r.Required)
}

// Complete reports whether the section satisfies the rule.
func (r Rule) Complete(fields map[string]any) bool {
	if r.HasContent != nil {
		return r.HasContent(fields)
	}
	return IsComplete(fields, r.Required)
}

type sectionDef struct {
	key   string
	title string
	rule  Rule
	new   func() Section
}

var documents = map[Document][]sectionDef{
	FundApplication: fundApplicationSections,
	InterimSummary:  interimSummarySections,
}

// Documents lists the known intake documents.
func Documents() []Document {
	return []Document{FundApplication, InterimSummary}
}

// Valid reports whether d is a known document.
func (d Document) Valid() bool {
	_, ok := documents[d]
	return ok
}

// SectionKeys lists the document's sections in form order.
func (d Document) SectionKeys() []string {
	defs := documents[d]
	keys := make([]string, len(defs))
	for i, s := range defs {
		keys[i] = s.key
	}
	return keys
}

func lookup(doc Document, key string) (sectionDef, bool) {
	for _, s := range documents[doc] {
		if s.key == key {
			return s, true
		}
	}
	return sectionDef{}, false
}

// RuleFor returns the completion rule for a section. ok is false for unknown
// documents or sections.
func RuleFor(doc Document, key string) (Rule, bool) {
	s, ok := lookup(doc, key)
	return s.rule, ok
}

// NewSection returns an empty typed section, or nil for unknown keys.
func NewSection(doc Document, key string) Section {
	s, ok := lookup(doc, key)
	if !ok {
		return nil
	}
	return s.new()
}

// Result is the outcome of validating one section.
type Result struct {
	IsValid bool              `json:"is_valid"`
	Errors  map[string]string `json:"errors"`
}

// Validate checks a section's fields against its rule. Unknown sections and
// sections without required fields are valid.
func Validate(doc Document, key string, fields map[string]any) Result {
	res := Result{IsValid: true, Errors: map[string]string{}}
	s, ok := lookup(doc, key)
	if !ok {
		return res
	}
	if s.rule.HasContent != nil {
		if !s.rule.HasContent(fields) {
			res.IsValid = false
			res.Errors[key] = "record at least one " + s.rule.ContentName
		}
		return res
	}
	for _, name := range s.rule.Required {
		if !Present(fields[name]) {
			res.Errors[name] = "is required"
		}
	}
	res.IsValid = len(res.Errors) == 0
	return res
}
