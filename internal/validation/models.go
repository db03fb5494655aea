package validation

import "time"

// Status is the closed verdict set shared by per-rule outcomes and the
// session-level aggregate.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusWarning Status = "warning"
)

func (s Status) Valid() bool {
	return s == StatusPass || s == StatusFail || s == StatusWarning
}

// Request asks for a document to be validated against a slice of the rule
// catalog. DocumentData values arrive with json.Number for numerics so
// monetary amounts keep their exact digits.
type Request struct {
	DocumentID   string                 `json:"document_id" binding:"required"`
	DocumentData map[string]interface{} `json:"document_data" binding:"required"`
	RuleFilters  RuleFilters            `json:"rule_filters"`
}

// RuleFilters narrows which catalog rules apply to this request.
type RuleFilters struct {
	Source     string `json:"source,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Type       string `json:"type,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// Outcome is the verdict for one rule. RuleText is truncated; the catalog
// holds the full text. Confidence is only present for judgment rules.
type Outcome struct {
	RuleID     string   `json:"rule_id" bson:"rule_id"`
	RuleText   string   `json:"rule_text" bson:"rule_text"`
	Status     Status   `json:"status" bson:"status"`
	Details    string   `json:"details,omitempty" bson:"details,omitempty"`
	Confidence *float64 `json:"confidence_score,omitempty" bson:"confidence_score,omitempty"`
}

// Summary carries the document-level verdict plus exact tallies by status.
type Summary struct {
	OverallStatus Status `json:"overall_status" bson:"overall_status"`
	Passed        int    `json:"passed" bson:"passed"`
	Failed        int    `json:"failed" bson:"failed"`
	Warnings      int    `json:"warnings" bson:"warnings"`
}

// Session is one completed validation run, the unit the history keeps.
type Session struct {
	SessionID     string    `json:"session_id" bson:"session_id"`
	DocumentID    string    `json:"document_id" bson:"document_id"`
	OverallStatus Status    `json:"overall_status" bson:"overall_status"`
	Passed        int       `json:"passed" bson:"passed"`
	Failed        int       `json:"failed" bson:"failed"`
	Warnings      int       `json:"warnings" bson:"warnings"`
	Outcomes      []Outcome `json:"results" bson:"results"`
	RulesApplied  int       `json:"total_rules_checked" bson:"total_rules_checked"`
	CreatedAt     time.Time `json:"timestamp" bson:"created_at"`
}

// Response is what the validate endpoint returns. HistoryPersisted flips to
// false when the session could not be recorded; the verdict itself is still
// served.
type Response struct {
	SessionID        string    `json:"session_id,omitempty"`
	DocumentID       string    `json:"document_id"`
	OverallStatus    Status    `json:"overall_status"`
	Passed           int       `json:"passed"`
	Failed           int       `json:"failed"`
	Warnings         int       `json:"warnings"`
	Outcomes         []Outcome `json:"results"`
	RulesApplied     int       `json:"total_rules_checked"`
	CreatedAt        time.Time `json:"timestamp"`
	HistoryPersisted bool      `json:"history_persisted"`
}

// HistoryResponse lists a document's past sessions, oldest first.
type HistoryResponse struct {
	DocumentID    string    `json:"document_id"`
	TotalSessions int       `json:"total_sessions"`
	Sessions      []Session `json:"sessions"`
}
