package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/repositories"
	"github.com/UMS-P-2025/coursework-service/internal/validator"
)

const defaultAcademicYear = "2024-2025"

// dummyHash keeps credential verification doing the same bcrypt work whether
// or not the email exists, so response timing does not reveal which case hit.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AuthConfig carries the token and hashing settings for the credential gate.
type AuthConfig struct {
	JWTSecret  []byte
	TokenTTL   time.Duration
	BcryptCost int
}

type authService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	config    AuthConfig
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, config AuthConfig) AuthService {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = 24 * time.Hour
	}
	return &authService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// RegisterStudent creates a student account. Students are auto-approved and
// receive a token immediately.
func (s *authService) RegisterStudent(ctx context.Context, req *RegisterStudentRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash credential: %w", err)
	}

	academicYear := req.AcademicYear
	if academicYear == "" {
		academicYear = defaultAcademicYear
	}

	account := &models.Account{
		Username:             req.Username,
		Email:                req.Email,
		PasswordHash:         string(hash),
		Role:                 models.RoleStudent,
		Status:               models.ApprovalApproved,
		Department:           req.Department,
		AcademicYear:         academicYear,
		EnrolledSubjectCodes: datatypes.JSON([]byte("[]")),
	}

	if err := s.repo.Account().Create(ctx, nil, account); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create student account: %w", err)
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student registered", "account_id", account.ID, "department", account.Department)

	return &AuthResponse{Account: account, Token: token}, nil
}

// RegisterFaculty creates a pending faculty account. No token is issued;
// approval gates login, not registration.
func (s *authService) RegisterFaculty(ctx context.Context, req *RegisterFacultyRequest) (*models.Account, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash credential: %w", err)
	}

	account := &models.Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleFaculty,
		Status:       models.ApprovalPending,
		Department:   req.Department,
		FacultyID:    req.FacultyID,
	}

	if err := s.repo.Account().Create(ctx, nil, account); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create faculty account: %w", err)
	}

	s.logger.Info("Faculty registered, awaiting approval", "account_id", account.ID, "department", account.Department)

	return account, nil
}

// EnsureAdmin provisions the admin account the approval workflow depends on.
// Registration never creates admins; this runs once at startup. A concurrent
// boot losing the insert race falls back to the winner's row.
func (s *authService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.Account, error) {
	if email == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: admin email and a password of at least 8 characters are required", ErrValidationFailed)
	}

	existing, err := s.repo.Account().GetByEmail(ctx, nil, email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: %s belongs to a non-admin account", ErrDuplicateIdentity, email)
		}
		return existing, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up admin account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash credential: %w", err)
	}

	account := &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Status:       models.ApprovalApproved,
	}

	if err := s.repo.Account().Create(ctx, nil, account); err != nil {
		if repositories.IsDuplicateError(err) {
			return s.repo.Account().GetByEmail(ctx, nil, email)
		}
		return nil, fmt.Errorf("failed to create admin account: %w", err)
	}

	s.logger.Info("Admin account provisioned", "account_id", account.ID, "email", email)

	return account, nil
}

// Login validates credentials and issues a token. Unknown email and wrong
// password produce the same failure; un-approved faculty never get a token
// even with correct credentials.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	account, err := s.repo.Account().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	// Approval is read at login time, never cached in a token.
	if account.Role == models.RoleFaculty && account.Status != models.ApprovalApproved {
		return nil, ErrPendingApproval
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Login succeeded", "account_id", account.ID, "role", account.Role)

	return &AuthResponse{Account: account, Token: token}, nil
}

// Authenticate verifies the token signature and expiry, then re-fetches the
// account so an approval or role change applies on the next request rather
// than at next login.
func (s *authService) Authenticate(ctx context.Context, tokenString string) (*models.Account, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.config.JWTSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	accountID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := s.repo.Account().GetByID(ctx, nil, uint(accountID))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	return account, nil
}

// Authorize is a pure set-membership check on the account role.
func (s *authService) Authorize(account *models.Account, roles ...models.AccountRole) error {
	for _, role := range roles {
		if account.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// issueToken signs a token carrying only the account id and expiry. Role and
// status claims are deliberately absent; every request re-reads them.
func (s *authService) issueToken(account *models.Account) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(account.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
