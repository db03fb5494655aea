package validation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docucheck/internal/judgment"
	"docucheck/internal/logger"
	"docucheck/internal/rules"
	pkgerrors "docucheck/pkg/errors"
)

type fakeSource struct {
	rules []rules.Rule
	err   error
}

func (s *fakeSource) SelectRules(ctx context.Context, filter rules.Filter) ([]rules.Rule, error) {
	return s.rules, s.err
}

type fakeAssessor struct {
	fn func(ruleID string) judgment.Result
}

func (a *fakeAssessor) Assess(ctx context.Context, ruleID, ruleVersion, ruleText string, doc map[string]interface{}) judgment.Result {
	if a.fn != nil {
		return a.fn(ruleID)
	}
	return judgment.Result{Status: judgment.StatusPass}
}

type fakeRecorder struct {
	sessions  []*Session
	appendErr error
	listErr   error
}

func (r *fakeRecorder) AppendSession(ctx context.Context, session *Session) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.sessions = append(r.sessions, session)
	return nil
}

func (r *fakeRecorder) ListSessions(ctx context.Context, documentID string) ([]Session, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []Session
	for _, s := range r.sessions {
		if s.DocumentID == documentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakePublisher struct {
	published []*Session
	err       error
}

func (p *fakePublisher) PublishSessionCompleted(ctx context.Context, session *Session) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, session)
	return nil
}

func codableRule(id, logic string) rules.Rule {
	return rules.Rule{
		RuleID:  id,
		Source:  "UCP600",
		Kind:    rules.KindCodable,
		Text:    "rule text for " + id,
		Logic:   logic,
		Version: "1.0",
	}
}

func judgmentRule(id string) rules.Rule {
	return rules.Rule{
		RuleID:  id,
		Source:  "ISBP",
		Kind:    rules.KindJudgment,
		Text:    "rule text for " + id,
		Version: "1.0",
	}
}

func newTestService(source RuleSource, assessor Assessor, recorder Recorder, publisher EventPublisher) *Service {
	return NewService(source, assessor, recorder, publisher, 4, logger.NopLogger())
}

func TestValidateAllPass(t *testing.T) {
	source := &fakeSource{rules: []rules.Rule{
		codableRule("UCP600-6d", `{"field": "expiry_date", "op": "present"}`),
	}}
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{}
	svc := newTestService(source, &fakeAssessor{}, recorder, publisher)

	resp, err := svc.Validate(context.Background(), &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{"expiry_date": "2024-12-31"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPass, resp.OverallStatus)
	assert.Equal(t, 1, resp.RulesApplied)
	assert.True(t, resp.HistoryPersisted)
	assert.NotEmpty(t, resp.SessionID)
	require.Len(t, recorder.sessions, 1)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, resp.SessionID, publisher.published[0].SessionID)
}

func TestValidateFailDominates(t *testing.T) {
	source := &fakeSource{rules: []rules.Rule{
		codableRule("R1", `{"field": "expiry_date", "op": "present"}`),
		codableRule("R2", `{"field": "amount", "op": "lte", "value": "100.00", "kind": "decimal"}`),
		judgmentRule("R3"),
	}}
	assessor := &fakeAssessor{fn: func(string) judgment.Result {
		return judgment.Result{Status: judgment.StatusWarning, Details: "degraded"}
	}}
	svc := newTestService(source, assessor, &fakeRecorder{}, nil)

	resp, err := svc.Validate(context.Background(), &Request{
		DocumentID: "doc-1",
		DocumentData: map[string]interface{}{
			"expiry_date": "2024-12-31",
			"amount":      "250.00",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFail, resp.OverallStatus)
	assert.Equal(t, 1, resp.Passed)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, 1, resp.Warnings)
	require.Len(t, resp.Outcomes, 3)
	assert.Equal(t, StatusPass, resp.Outcomes[0].Status)
	assert.Equal(t, StatusFail, resp.Outcomes[1].Status)
	assert.Equal(t, StatusWarning, resp.Outcomes[2].Status)
}

func TestValidateOutcomesKeepSelectionOrder(t *testing.T) {
	var selected []rules.Rule
	for i := 0; i < 20; i++ {
		selected = append(selected, judgmentRule(fmt.Sprintf("R%02d", i)))
	}
	assessor := &fakeAssessor{fn: func(ruleID string) judgment.Result {
		return judgment.Result{Status: judgment.StatusPass, Details: ruleID}
	}}
	svc := newTestService(&fakeSource{rules: selected}, assessor, &fakeRecorder{}, nil)

	resp, err := svc.Validate(context.Background(), &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{},
	})
	require.NoError(t, err)

	require.Len(t, resp.Outcomes, 20)
	for i, outcome := range resp.Outcomes {
		assert.Equal(t, fmt.Sprintf("R%02d", i), outcome.RuleID)
		assert.Equal(t, outcome.RuleID, outcome.Details)
	}
}

func TestValidateMissingFieldBecomesWarning(t *testing.T) {
	source := &fakeSource{rules: []rules.Rule{
		codableRule("R1", `{"field": "expiry_date", "op": "lte", "value": "2024-12-31", "kind": "date"}`),
	}}
	svc := newTestService(source, &fakeAssessor{}, &fakeRecorder{}, nil)

	resp, err := svc.Validate(context.Background(), &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusWarning, resp.OverallStatus)
	assert.Contains(t, resp.Outcomes[0].Details, "missing field(s) expiry_date")
	assert.Nil(t, resp.Outcomes[0].Confidence)
}

func TestValidateMalformedLogicFailsRule(t *testing.T) {
	source := &fakeSource{rules: []rules.Rule{
		codableRule("R1", `{"field": "amount"`),
	}}
	svc := newTestService(source, &fakeAssessor{}, &fakeRecorder{}, nil)

	resp, err := svc.Validate(context.Background(), &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{"amount": "10"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFail, resp.OverallStatus)
	assert.Contains(t, resp.Outcomes[0].Details, "malformed")
}

func TestValidateUninterpretableValueFailsRule(t *testing.T) {
	source := &fakeSource{rules: []rules.Rule{
		codableRule("R1", `{"field": "amount", "op": "lte", "value": "100.00", "kind": "decimal"}`),
	}}
	svc := newTestService(source, &fakeAssessor{}, &fakeRecorder{}, nil)

	resp, err := svc.Validate(context.Background(), &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{"amount": "not a number"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFail, resp.OverallStatus)
	assert.Contains(t, resp.Outcomes[0].Details, "cannot interpret value as decimal")
}

func TestValidateZeroRulesIsVacuousPass(t *testing.T) {
	svc := newTestService(&fakeSource{}, &fakeAssessor{}, &fakeRecorder{}, nil)

	resp, err := svc.Validate(context.Background(), &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPass, resp.OverallStatus)
	assert.Equal(t, 0, resp.RulesApplied)
	assert.Empty(t, resp.Outcomes)
}

func TestValidateRecorderFailureStillServesVerdict(t *testing.T) {
	source := &fakeSource{rules: []rules.Rule{
		codableRule("R1", `{"field": "expiry_date", "op": "present"}`),
	}}
	recorder := &fakeRecorder{appendErr: errors.New("mongo unavailable")}
	svc := newTestService(source, &fakeAssessor{}, recorder, nil)

	resp, err := svc.Validate(context.Background(), &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{"expiry_date": "2024-12-31"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPass, resp.OverallStatus)
	assert.False(t, resp.HistoryPersisted)
}

func TestValidateJudgmentConfidencePassesThrough(t *testing.T) {
	confidence := 0.87
	source := &fakeSource{rules: []rules.Rule{judgmentRule("R1")}}
	assessor := &fakeAssessor{fn: func(string) judgment.Result {
		return judgment.Result{Status: judgment.StatusFail, Details: "data conflict", Confidence: &confidence}
	}}
	svc := newTestService(source, assessor, &fakeRecorder{}, nil)

	resp, err := svc.Validate(context.Background(), &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{},
	})
	require.NoError(t, err)

	require.Len(t, resp.Outcomes, 1)
	assert.Equal(t, StatusFail, resp.Outcomes[0].Status)
	require.NotNil(t, resp.Outcomes[0].Confidence)
	assert.Equal(t, confidence, *resp.Outcomes[0].Confidence)
}

func TestValidateCancelledContextRecordsNothing(t *testing.T) {
	source := &fakeSource{rules: []rules.Rule{
		codableRule("R1", `{"field": "expiry_date", "op": "present"}`),
	}}
	recorder := &fakeRecorder{}
	svc := newTestService(source, &fakeAssessor{}, recorder, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Validate(ctx, &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{"expiry_date": "2024-12-31"},
	})
	require.Error(t, err)
	assert.Empty(t, recorder.sessions)
}

func TestValidateSelectionErrorPropagates(t *testing.T) {
	source := &fakeSource{err: errors.New("postgres down")}
	svc := newTestService(source, &fakeAssessor{}, &fakeRecorder{}, nil)

	_, err := svc.Validate(context.Background(), &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{},
	})
	assert.Error(t, err)
}

func TestQuickValidateDoesNotRecordOrPublish(t *testing.T) {
	source := &fakeSource{rules: []rules.Rule{
		codableRule("R1", `{"field": "expiry_date", "op": "present"}`),
	}}
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{}
	svc := newTestService(source, &fakeAssessor{}, recorder, publisher)

	resp, err := svc.QuickValidate(context.Background(), &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{"expiry_date": "2024-12-31"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPass, resp.OverallStatus)
	assert.Empty(t, resp.SessionID)
	assert.Empty(t, recorder.sessions)
	assert.Empty(t, publisher.published)
}

func TestHistoryReturnsSessionsOldestFirst(t *testing.T) {
	source := &fakeSource{rules: []rules.Rule{
		codableRule("R1", `{"field": "expiry_date", "op": "present"}`),
	}}
	recorder := &fakeRecorder{}
	svc := newTestService(source, &fakeAssessor{}, recorder, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Validate(context.Background(), &Request{
			DocumentID:   "doc-1",
			DocumentData: map[string]interface{}{"expiry_date": "2024-12-31"},
		})
		require.NoError(t, err)
	}

	history, err := svc.History(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", history.DocumentID)
	assert.Equal(t, 3, history.TotalSessions)
	assert.Len(t, history.Sessions, 3)
	for i := 1; i < len(history.Sessions); i++ {
		assert.False(t, history.Sessions[i].CreatedAt.Before(history.Sessions[i-1].CreatedAt))
	}
}

func TestHistoryUnknownDocumentIsNotFound(t *testing.T) {
	svc := newTestService(&fakeSource{}, &fakeAssessor{}, &fakeRecorder{}, nil)

	_, err := svc.History(context.Background(), "doc-never-validated")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRuleTextTruncatedInOutcome(t *testing.T) {
	longText := make([]rune, 500)
	for i := range longText {
		longText[i] = 'x'
	}
	rule := codableRule("R1", `{"field": "expiry_date", "op": "present"}`)
	rule.Text = string(longText)

	svc := newTestService(&fakeSource{rules: []rules.Rule{rule}}, &fakeAssessor{}, &fakeRecorder{}, nil)

	resp, err := svc.Validate(context.Background(), &Request{
		DocumentID:   "doc-1",
		DocumentData: map[string]interface{}{"expiry_date": "2024-12-31"},
	})
	require.NoError(t, err)
	assert.Len(t, []rune(resp.Outcomes[0].RuleText), 200)
}
