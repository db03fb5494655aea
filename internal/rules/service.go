package rules

import (
	"context"

	"docucheck/internal/logger"
	pkgerrors "docucheck/pkg/errors"
)

// Service owns the rule catalog lifecycle: create, read, update, delete,
// plus selection for the validation path.
type Service struct {
	repo      Repository
	validator *Validator
	selector  *Selector
	logger    logger.Logger
}

func NewService(repo Repository, validator *Validator, selector *Selector, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		selector:  selector,
		logger:    log,
	}
}

func (s *Service) CreateRule(ctx context.Context, req *CreateRuleRequest) (*Rule, error) {
	rule := &Rule{
		RuleID:  req.RuleID,
		Source:  req.Source,
		Article: req.Article,
		Domain:  req.Domain,
		Title:   req.Title,
		Text:    req.Text,
		Kind:    req.Kind,
		Logic:   req.Logic,
		Version: req.Version,
	}
	if rule.Version == "" {
		rule.Version = "1.0"
	}

	if err := s.validator.ValidateRule(rule); err != nil {
		return nil, err
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		s.logger.ErrorwCtx(ctx, "failed to create rule", "rule_id", rule.RuleID, "error", err)
		return nil, err
	}

	s.logger.InfowCtx(ctx, "rule created", "rule_id", rule.RuleID, "source", rule.Source, "type", rule.Kind)
	return rule, nil
}

func (s *Service) GetRule(ctx context.Context, ruleID string) (*Rule, error) {
	return s.repo.GetRule(ctx, ruleID)
}

func (s *Service) ListRules(ctx context.Context) ([]Rule, error) {
	return s.repo.ListRules(ctx)
}

func (s *Service) UpdateRule(ctx context.Context, ruleID string, req *UpdateRuleRequest) (*Rule, error) {
	rule, err := s.repo.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		rule.Title = *req.Title
	}
	if req.Text != nil {
		rule.Text = *req.Text
	}
	if req.Kind != nil {
		rule.Kind = *req.Kind
	}
	if req.Logic != nil {
		rule.Logic = *req.Logic
	}
	if req.Version != nil {
		rule.Version = *req.Version
	}

	if err := s.validator.ValidateRule(rule); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		s.logger.ErrorwCtx(ctx, "failed to update rule", "rule_id", ruleID, "error", err)
		return nil, err
	}

	s.logger.InfowCtx(ctx, "rule updated", "rule_id", ruleID, "version", rule.Version)
	return rule, nil
}

func (s *Service) DeleteRule(ctx context.Context, ruleID string) error {
	if err := s.repo.DeleteRule(ctx, ruleID); err != nil {
		return err
	}
	s.logger.InfowCtx(ctx, "rule deleted", "rule_id", ruleID)
	return nil
}

// SelectRules loads the catalog and narrows it by the filter. An invalid
// filter expression is a client error, not a catalog fault.
func (s *Service) SelectRules(ctx context.Context, filter Filter) ([]Rule, error) {
	catalog, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, err
	}

	selected, err := s.selector.Select(ctx, catalog, filter)
	if err != nil {
		return nil, pkgerrors.ErrValidation.WithCause(err).WithDetail("message", "invalid rule filter expression")
	}

	return selected, nil
}
