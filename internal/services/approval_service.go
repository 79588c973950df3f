package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/repositories"
)

type approvalService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	publisher EventPublisher
}

func NewApprovalService(repo repositories.Repository, logger *slog.Logger, publisher EventPublisher) ApprovalService {
	return &approvalService{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
	}
}

func (s *approvalService) ListPending(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.repo.Account().ListPendingFaculty(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending faculty: %w", err)
	}
	return accounts, nil
}

func (s *approvalService) Approve(ctx context.Context, accountID uint) (*models.Account, error) {
	return s.decide(ctx, accountID, models.ApprovalApproved)
}

func (s *approvalService) Reject(ctx context.Context, accountID uint) (*models.Account, error) {
	return s.decide(ctx, accountID, models.ApprovalRejected)
}

// decide flips a pending faculty account in one conditional write. When the
// write matches no row, the account is re-fetched to tell "not found" from
// "wrong role" from "already decided" for the caller's error message.
func (s *approvalService) decide(ctx context.Context, accountID uint, status models.ApprovalStatus) (*models.Account, error) {
	updated, err := s.repo.Account().SetStatusIfPending(ctx, nil, accountID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to apply approval decision: %w", err)
	}

	account, getErr := s.repo.Account().GetByID(ctx, nil, accountID)
	if getErr != nil {
		if repositories.IsNotFoundError(getErr) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch account: %w", getErr)
	}

	if !updated {
		if account.Role != models.RoleFaculty {
			return nil, ErrNotFaculty
		}
		// A concurrent decision won the race or the account was decided
		// earlier; either way the state is final.
		return nil, fmt.Errorf("%w: account is %s", ErrAlreadyDecided, account.Status)
	}

	s.logger.Info("Faculty approval decided",
		"account_id", account.ID, "username", account.Username, "decision", status)

	s.publisher.PublishFacultyDecision(ctx, FacultyDecisionEvent{
		AccountID: account.ID,
		Username:  account.Username,
		Decision:  status,
		DecidedAt: time.Now(),
	})

	return account, nil
}
