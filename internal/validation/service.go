package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docucheck/internal/constants"
	"docucheck/internal/judgment"
	"docucheck/internal/logger"
	"docucheck/internal/rules"
	pkgerrors "docucheck/pkg/errors"
	"docucheck/pkg/metrics"
	"docucheck/pkg/ruleexpr"
)

// RuleSource supplies the rules a request selects.
type RuleSource interface {
	SelectRules(ctx context.Context, filter rules.Filter) ([]rules.Rule, error)
}

// Assessor produces verdicts for judgment rules. It never fails; provider
// trouble surfaces as a warning result.
type Assessor interface {
	Assess(ctx context.Context, ruleID, ruleVersion, ruleText string, doc map[string]interface{}) judgment.Result
}

// Recorder is the append-only session archive.
type Recorder interface {
	AppendSession(ctx context.Context, session *Session) error
	ListSessions(ctx context.Context, documentID string) ([]Session, error)
}

// EventPublisher announces completed sessions to downstream consumers.
type EventPublisher interface {
	PublishSessionCompleted(ctx context.Context, session *Session) error
}

// Service orchestrates a validation run: select rules, evaluate them
// concurrently, aggregate, record, announce. Rule evaluation order in the
// response always matches selection order regardless of which finishes first.
type Service struct {
	source         RuleSource
	assessor       Assessor
	recorder       Recorder
	publisher      EventPublisher
	maxConcurrency int
	logger         logger.Logger
}

func NewService(source RuleSource, assessor Assessor, recorder Recorder, publisher EventPublisher, maxConcurrency int, log logger.Logger) *Service {
	return &Service{
		source:         source,
		assessor:       assessor,
		recorder:       recorder,
		publisher:      publisher,
		maxConcurrency: maxConcurrency,
		logger:         log,
	}
}

// Validate runs the full pipeline and records the session. When the archive
// write fails the verdict is still served, flagged with history_persisted
// false, because the caller needs the compliance answer more than the audit
// trail needs the caller to wait.
func (s *Service) Validate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	selected, err := s.source.SelectRules(ctx, s.toFilter(req.RuleFilters))
	if err != nil {
		return nil, err
	}

	outcomes, err := s.evaluateAll(ctx, selected, req.DocumentData)
	if err != nil {
		return nil, err
	}

	summary := Aggregate(outcomes)

	session := &Session{
		SessionID:     uuid.New().String(),
		DocumentID:    req.DocumentID,
		OverallStatus: summary.OverallStatus,
		Passed:        summary.Passed,
		Failed:        summary.Failed,
		Warnings:      summary.Warnings,
		Outcomes:      outcomes,
		RulesApplied:  len(selected),
		CreatedAt:     time.Now().UTC(),
	}

	persisted := true
	if s.recorder == nil {
		persisted = false
	} else if err := s.recorder.AppendSession(ctx, session); err != nil {
		persisted = false
		metrics.HistoryWritesTotal.WithLabelValues("error").Inc()
		s.logger.ErrorwCtx(ctx, "failed to record validation session",
			"session_id", session.SessionID, "document_id", session.DocumentID, "error", err)
	} else {
		metrics.HistoryWritesTotal.WithLabelValues("ok").Inc()
	}

	if s.publisher != nil {
		if err := s.publisher.PublishSessionCompleted(ctx, session); err != nil {
			s.logger.WarnwCtx(ctx, "failed to publish session event",
				"session_id", session.SessionID, "error", err)
		}
	}

	overall := string(summary.OverallStatus)
	metrics.ValidationSessionsTotal.WithLabelValues(overall).Inc()
	metrics.ValidationRulesEvaluated.WithLabelValues(overall).Observe(float64(len(selected)))
	metrics.ObserveValidationDuration(time.Since(start), overall)

	s.logger.InfowCtx(ctx, "validation session completed",
		"session_id", session.SessionID,
		"document_id", session.DocumentID,
		"overall_status", summary.OverallStatus,
		"rules_applied", len(selected),
		"history_persisted", persisted,
	)

	return &Response{
		SessionID:        session.SessionID,
		DocumentID:       session.DocumentID,
		OverallStatus:    session.OverallStatus,
		Passed:           session.Passed,
		Failed:           session.Failed,
		Warnings:         session.Warnings,
		Outcomes:         session.Outcomes,
		RulesApplied:     session.RulesApplied,
		CreatedAt:        session.CreatedAt,
		HistoryPersisted: persisted,
	}, nil
}

// QuickValidate evaluates without recording a session or announcing an
// event. It exists for pre-submission checks where the caller does not want
// the attempt on the document's permanent record.
func (s *Service) QuickValidate(ctx context.Context, req *Request) (*Response, error) {
	selected, err := s.source.SelectRules(ctx, s.toFilter(req.RuleFilters))
	if err != nil {
		return nil, err
	}

	outcomes, err := s.evaluateAll(ctx, selected, req.DocumentData)
	if err != nil {
		return nil, err
	}

	summary := Aggregate(outcomes)

	return &Response{
		DocumentID:    req.DocumentID,
		OverallStatus: summary.OverallStatus,
		Passed:        summary.Passed,
		Failed:        summary.Failed,
		Warnings:      summary.Warnings,
		Outcomes:      outcomes,
		RulesApplied:  len(selected),
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// History returns every recorded session for a document, oldest first.
func (s *Service) History(ctx context.Context, documentID string) (*HistoryResponse, error) {
	if s.recorder == nil {
		return nil, pkgerrors.ErrServiceUnavailable.WithDetail("message", "session history storage is not configured")
	}

	sessions, err := s.recorder.ListSessions(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load validation history: %w", err)
	}

	if len(sessions) == 0 {
		return nil, pkgerrors.ErrNotFound.WithDetail("message",
			fmt.Sprintf("no validation sessions recorded for document %s", documentID))
	}

	return &HistoryResponse{
		DocumentID:    documentID,
		TotalSessions: len(sessions),
		Sessions:      sessions,
	}, nil
}

func (s *Service) toFilter(f RuleFilters) rules.Filter {
	return rules.Filter{
		Source:     f.Source,
		Domain:     f.Domain,
		Kind:       rules.Kind(f.Type),
		Expression: f.Expression,
	}
}

// evaluateAll fans rules out over a bounded worker group. Each worker writes
// its outcome by index, so the result slice keeps selection order. A
// cancelled context aborts the whole run; a half-evaluated session is never
// assembled.
func (s *Service) evaluateAll(ctx context.Context, selected []rules.Rule, doc map[string]interface{}) ([]Outcome, error) {
	outcomes := make([]Outcome, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}

	for i, rule := range selected {
		i, rule := i, rule
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.evaluateRule(gctx, rule, doc)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validation aborted: %w", err)
	}

	return outcomes, nil
}

// evaluateRule dispatches by rule kind. A panic inside a single rule's
// evaluation is contained here and fails that rule alone.
func (s *Service) evaluateRule(ctx context.Context, rule rules.Rule, doc map[string]interface{}) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := pkgerrors.RecoverPanic(r)
			s.logger.ErrorwCtx(ctx, "panic during rule evaluation", "rule_id", rule.RuleID, "error", err)
			outcome = Outcome{
				RuleID:   rule.RuleID,
				RuleText: truncateRuleText(rule.Text),
				Status:   StatusFail,
				Details:  "rule evaluation failed unexpectedly",
			}
		}
	}()

	switch rule.Kind {
	case rules.KindJudgment:
		outcome = s.evaluateJudgment(ctx, rule, doc)
	default:
		outcome = s.evaluateCodable(ctx, rule, doc)
	}

	metrics.IncRuleOutcome(rule.RuleID, string(rule.Kind), string(outcome.Status))
	return outcome
}

// evaluateCodable runs the rule's logic tree over the document. A definite
// truth maps straight to pass or fail; an unknown becomes a warning naming
// the missing fields. Malformed logic or an uninterpretable field value
// fails the rule, never passes it.
func (s *Service) evaluateCodable(ctx context.Context, rule rules.Rule, doc map[string]interface{}) Outcome {
	outcome := Outcome{
		RuleID:   rule.RuleID,
		RuleText: truncateRuleText(rule.Text),
	}

	node, err := ruleexpr.Parse(rule.Logic)
	if err != nil {
		s.logger.ErrorwCtx(ctx, "rule logic is malformed", "rule_id", rule.RuleID, "error", err)
		outcome.Status = StatusFail
		outcome.Details = "rule logic is malformed and could not be evaluated"
		return outcome
	}

	eval, err := node.Evaluate(doc)
	if err != nil {
		outcome.Status = StatusFail
		outcome.Details = err.Error()
		return outcome
	}

	switch eval.Truth {
	case ruleexpr.True:
		outcome.Status = StatusPass
	case ruleexpr.False:
		outcome.Status = StatusFail
		outcome.Details = "document does not satisfy the rule conditions"
	default:
		outcome.Status = StatusWarning
		outcome.Details = ruleexpr.MissingFieldsDetail(eval.Missing)
	}

	return outcome
}

func (s *Service) evaluateJudgment(ctx context.Context, rule rules.Rule, doc map[string]interface{}) Outcome {
	result := s.assessor.Assess(ctx, rule.RuleID, rule.Version, rule.Text, doc)

	return Outcome{
		RuleID:     rule.RuleID,
		RuleText:   truncateRuleText(rule.Text),
		Status:     Status(result.Status),
		Details:    result.Details,
		Confidence: result.Confidence,
	}
}

func truncateRuleText(text string) string {
	runes := []rune(text)
	if len(runes) <= constants.RuleTextTruncateLen {
		return text
	}
	return string(runes[:constants.RuleTextTruncateLen])
}
