package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout     = 10 * time.Second
	DefaultJudgmentTimeout = 30 * time.Second
)

const (
	CacheKeyPrefixJudgment = "judgment:"
)

const (
	DefaultSessionTopic = "validation.completed"
)

const (
	DefaultMongoDBName   = "docucheck"
	SessionCollection    = "validation_sessions"
	DefaultMigrationsDir = "migrations/postgres"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000

	// RuleTextTruncateLen bounds the rule text echoed into outcomes; the
	// full text stays in the catalog.
	RuleTextTruncateLen = 200
)

const (
	DefaultCacheTTLSeconds = 3600
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

const (
	// DomainLetterOfCredit is the selector shorthand that expands to the
	// letter-of-credit rulebooks.
	DomainLetterOfCredit = "LC"
)

var LetterOfCreditSources = []string{"UCP600", "ISBP", "eUCP"}
