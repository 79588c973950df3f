package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/repositories"
)

type AccountPostgreSQL struct {
	db *gorm.DB
}

func NewAccountPostgreSQL(db *gorm.DB) repositories.AccountRepository {
	return &AccountPostgreSQL{db: db}
}

func (a *AccountPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// Create persists a new account. Username and email uniqueness are enforced
// by independent unique indexes; either collision surfaces as a duplicate.
func (a *AccountPostgreSQL) Create(ctx context.Context, tx *gorm.DB, account *models.Account) error {
	if err := a.getDB(tx).WithContext(ctx).Create(account).Error; err != nil {
		return repositories.TranslateError(err)
	}
	return nil
}

func (a *AccountPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Account, error) {
	var account models.Account
	if err := a.getDB(tx).WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, repositories.TranslateError(err)
	}
	return &account, nil
}

func (a *AccountPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Account, error) {
	var account models.Account
	if err := a.getDB(tx).WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, repositories.TranslateError(err)
	}
	return &account, nil
}

// ListPendingFaculty orders by registration time ascending so the oldest
// request is decided first.
func (a *AccountPostgreSQL) ListPendingFaculty(ctx context.Context, tx *gorm.DB) ([]*models.Account, error) {
	var accounts []*models.Account
	err := a.getDB(tx).WithContext(ctx).
		Where("role = ? AND status = ?", models.RoleFaculty, models.ApprovalPending).
		Order("created_at ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending faculty: %w", err)
	}
	return accounts, nil
}

// SetStatusIfPending flips the approval status only while the account is a
// pending faculty record. Approved/rejected are absorbing: a second decision
// matches zero rows and reports false.
func (a *AccountPostgreSQL) SetStatusIfPending(ctx context.Context, tx *gorm.DB, id uint, status models.ApprovalStatus) (bool, error) {
	res := a.getDB(tx).WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND role = ? AND status = ?", id, models.RoleFaculty, models.ApprovalPending).
		Update("status", status)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update approval status: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// AddEnrolledSubjectCode appends the code to the student's jsonb mirror list
// in one statement, so concurrent enrollments by the same student never lose
// a code to a read-modify-write race. Duplicate codes are skipped; the
// enrollments table remains the source of truth.
func (a *AccountPostgreSQL) AddEnrolledSubjectCode(ctx context.Context, tx *gorm.DB, studentID uint, code string) error {
	elem, err := json.Marshal([]string{code})
	if err != nil {
		return fmt.Errorf("failed to encode subject code: %w", err)
	}

	res := a.getDB(tx).WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", studentID).
		Update("enrolled_subject_codes", gorm.Expr(
			"CASE"+
				" WHEN enrolled_subject_codes IS NULL OR enrolled_subject_codes = 'null'::jsonb THEN ?::jsonb"+
				" WHEN enrolled_subject_codes @> ?::jsonb THEN enrolled_subject_codes"+
				" ELSE enrolled_subject_codes || ?::jsonb END",
			string(elem), string(elem), string(elem)))
	if res.Error != nil {
		return fmt.Errorf("failed to update enrolled subject codes: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
