package cel

// FilterExpressionExamples documents the shapes of rule filter expressions
// the API accepts. Filters see rule metadata only, never document fields.
var FilterExpressionExamples = map[string]string{
	"by_source":         `source == "UCP600"`,
	"by_article_prefix": `article.startsWith("14")`,
	"codable_only":      `kind == "codable"`,
	"judgment_only":     `kind == "ai_assisted"`,
	"source_membership": `source in ["UCP600", "ISBP", "eUCP"]`,
	"rule_id_contains":  `rule_id.contains("18")`,
	"combined":          `source == "UCP600" && kind == "codable"`,
	"domain_with_title": `domain == "LC" && title.contains("Invoice")`,
	"version_pinning":   `version == "1.0"`,
	"either_source":     `source == "UCP600" || source == "ISBP"`,
}
