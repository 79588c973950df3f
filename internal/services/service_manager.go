package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UMS-P-2025/coursework-service/internal/config"
	"github.com/UMS-P-2025/coursework-service/internal/repositories"
	"github.com/UMS-P-2025/coursework-service/internal/validator"
)

type serviceManager struct {
	auth       AuthService
	approval   ApprovalService
	subject    SubjectService
	submission SubmissionService
	export     ExportService

	repo      repositories.Repository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewServiceManager wires every service against one repository and one event
// publisher.
func NewServiceManager(cfg *config.Config, repo repositories.Repository, v *validator.Validator, logger *slog.Logger) (ServiceManager, error) {
	publisher, err := NewEventPublisher(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build event publisher: %w", err)
	}

	authCfg := AuthConfig{
		JWTSecret:  []byte(cfg.JWTSecret),
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	}

	return &serviceManager{
		auth:       NewAuthService(repo, logger, v, authCfg),
		approval:   NewApprovalService(repo, logger, publisher),
		subject:    NewSubjectService(repo, logger, v, publisher),
		submission: NewSubmissionService(repo, logger, v, publisher),
		export:     NewExportService(repo, logger),
		repo:       repo,
		publisher:  publisher,
		logger:     logger,
	}, nil
}

func (m *serviceManager) Auth() AuthService             { return m.auth }
func (m *serviceManager) Approval() ApprovalService     { return m.approval }
func (m *serviceManager) Subject() SubjectService       { return m.subject }
func (m *serviceManager) Submission() SubmissionService { return m.submission }
func (m *serviceManager) Export() ExportService         { return m.export }

func (m *serviceManager) Initialize(ctx context.Context) error {
	return m.repo.Ping(ctx)
}

func (m *serviceManager) HealthCheck(ctx context.Context) error {
	return m.repo.Ping(ctx)
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	if err := m.publisher.Close(); err != nil {
		m.logger.Warn("Failed to close event publisher", "error", err)
	}
	return nil
}
