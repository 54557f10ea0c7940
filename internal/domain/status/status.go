// Package status normalizes free-form case status strings into reporting
// groups and governs which status changes a case may make.
package status

import (
	"regexp"
	"strings"
)

// Group is a reporting bucket for case statuses.
type Group string

const (
	Draft                Group = "Draft"
	InReview             Group = "In Review"
	SubmittedToCommittee Group = "Submitted to Committee"
	Approved             Group = "Approved"
	Returned             Group = "Returned"
	Rejected             Group = "Rejected"
	Closed               Group = "Closed"
	Other                Group = "Other"
)

// Groups lists every group in reporting order.
var Groups = []Group{Draft, InReview, SubmittedToCommittee, Approved, Returned, Rejected, Closed, Other}

var separators = regexp.MustCompile(`[\s_-]+`)

var aliases = map[string]Group{
	"draft": Draft,
	"new":   Draft,

	"in_review":    InReview,
	"under_review": InReview,
	"pending":      InReview,
	"in_progress":  InReview,

	"submitted":              SubmittedToCommittee,
	"submitted_to_committee": SubmittedToCommittee,
	"under_verification":     SubmittedToCommittee,
	"committee_review":       SubmittedToCommittee,

	"approved":   Approved,
	"sanctioned": Approved,

	"returned":   Returned,
	"needs_info": Returned,
	"sent_back":  Returned,

	"rejected": Rejected,
	"declined": Rejected,

	"closed":    Closed,
	"disbursed": Closed,
	"settled":   Closed,
}

// canonical is the stored form of each group.
var canonical = map[Group]string{
	Draft:                "draft",
	InReview:             "in_review",
	SubmittedToCommittee: "submitted_to_committee",
	Approved:             "approved",
	Returned:             "returned",
	Rejected:             "rejected",
	Closed:               "closed",
}

// Normalize trims surrounding whitespace, lower-cases and folds runs of
// spaces, hyphens and underscores into a single underscore. Leading or
// trailing underscores and hyphens are kept, so "_draft" is not "draft".
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return separators.ReplaceAllString(s, "_")
}

// Classify maps a raw status to its group. Unknown and empty input is Other.
func Classify(raw string) Group {
	if g, ok := aliases[Normalize(raw)]; ok {
		return g
	}
	return Other
}

// Canonical returns the stored status string for g, or "" for Other.
func Canonical(g Group) string {
	return canonical[g]
}

// Slug is the snake_case form of the group name, used as a stable key in
// reports and metric labels.
func (g Group) Slug() string {
	return Normalize(string(g))
}
