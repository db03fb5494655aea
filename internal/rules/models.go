package rules

import "time"

// Kind is the closed classification of a rule: either its compliance check
// is expressible as deterministic logic over document fields, or it needs an
// external semantic judgment.
type Kind string

const (
	KindCodable  Kind = "codable"
	KindJudgment Kind = "ai_assisted"
)

func (k Kind) Valid() bool {
	return k == KindCodable || k == KindJudgment
}

// Rule is one entry of the compliance catalog. Rules are read-only to the
// validation path; only the management API mutates them.
type Rule struct {
	ID        string    `json:"id" db:"id"`
	RuleID    string    `json:"rule_id" db:"rule_id"`
	Source    string    `json:"source" db:"source"`
	Article   string    `json:"article" db:"article"`
	Domain    string    `json:"domain" db:"domain"`
	Title     string    `json:"title,omitempty" db:"title"`
	Text      string    `json:"text" db:"text"`
	Kind      Kind      `json:"type" db:"kind"`
	Logic     string    `json:"logic,omitempty" db:"logic"`
	Version   string    `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Filter narrows a catalog before evaluation. Zero-valued fields mean "no
// constraint on that attribute". Expression is an optional CEL filter over
// rule metadata.
type Filter struct {
	Source     string
	Domain     string
	Kind       Kind
	Expression string
}

func (f Filter) IsZero() bool {
	return f.Source == "" && f.Domain == "" && f.Kind == "" && f.Expression == ""
}

type CreateRuleRequest struct {
	RuleID  string `json:"rule_id" binding:"required"`
	Source  string `json:"source" binding:"required"`
	Article string `json:"article" binding:"required"`
	Domain  string `json:"domain"`
	Title   string `json:"title"`
	Text    string `json:"text" binding:"required"`
	Kind    Kind   `json:"type" binding:"required"`
	Logic   string `json:"logic"`
	Version string `json:"version"`
}

type UpdateRuleRequest struct {
	Title   *string `json:"title"`
	Text    *string `json:"text"`
	Kind    *Kind   `json:"type"`
	Logic   *string `json:"logic"`
	Version *string `json:"version"`
}
