package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/UMS-P-2025/coursework-service/internal/cache"
	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/repositories"
)

type SubjectPostgreSQL struct {
	db          *gorm.DB
	cacheHelper *cache.CacheHelper
}

func NewSubjectPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.SubjectRepository {
	return &SubjectPostgreSQL{
		db:          db,
		cacheHelper: cache.NewCacheHelper(redisClient, cache.SubjectCacheConfig.Prefix),
	}
}

func (s *SubjectPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SubjectPostgreSQL) Create(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	if err := s.getDB(tx).WithContext(ctx).Create(subject).Error; err != nil {
		return repositories.TranslateError(err)
	}
	cache.SafeDelete(ctx, s.cacheHelper, "list:active")
	return nil
}

func (s *SubjectPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Subject, error) {
	var subject models.Subject
	err := s.getDB(tx).WithContext(ctx).
		Preload("Enrollments").
		First(&subject, id).Error
	if err != nil {
		return nil, repositories.TranslateError(err)
	}
	subject.EnrolledCount = len(subject.Enrollments)
	return &subject, nil
}

func (s *SubjectPostgreSQL) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Subject, error) {
	var subject models.Subject
	err := s.getDB(tx).WithContext(ctx).
		Where("subject_code = ?", code).
		First(&subject).Error
	if err != nil {
		return nil, repositories.TranslateError(err)
	}
	return &subject, nil
}

// Enroll grants a seat as one atomic step: the subject row is locked for the
// duration of the duplicate check, capacity check and insert, so two students
// racing for the last seat cannot both succeed. AlreadyEnrolled is checked
// before capacity, keeping re-enroll attempts from consuming a seat.
func (s *SubjectPostgreSQL) Enroll(ctx context.Context, tx *gorm.DB, subjectID, studentID uint) (*models.Subject, error) {
	var enrolled *models.Subject

	run := func(db *gorm.DB) error {
		var subject models.Subject
		err := db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&subject, subjectID).Error
		if err != nil {
			return repositories.TranslateError(err)
		}

		if !subject.IsActive {
			return repositories.ErrSubjectInactive
		}

		var count int64
		err = db.WithContext(ctx).
			Model(&models.Enrollment{}).
			Where("subject_id = ?", subjectID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to count enrollments: %w", err)
		}

		var existing int64
		err = db.WithContext(ctx).
			Model(&models.Enrollment{}).
			Where("subject_id = ? AND student_id = ?", subjectID, studentID).
			Count(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to check existing enrollment: %w", err)
		}
		if existing > 0 {
			return repositories.ErrAlreadyEnrolled
		}

		if count >= int64(subject.MaxStudents) {
			return repositories.ErrCapacityExceeded
		}

		enrollment := models.Enrollment{
			SubjectID:  subjectID,
			StudentID:  studentID,
			EnrolledAt: time.Now(),
		}
		if err := db.WithContext(ctx).Create(&enrollment).Error; err != nil {
			// The composite unique index backstops a racing duplicate.
			if repositories.IsDuplicateError(repositories.TranslateError(err)) {
				return repositories.ErrAlreadyEnrolled
			}
			return fmt.Errorf("failed to create enrollment: %w", err)
		}

		subject.EnrolledCount = int(count) + 1
		enrolled = &subject
		return nil
	}

	var err error
	if tx != nil {
		err = run(tx)
	} else {
		err = s.db.Transaction(run)
	}
	if err != nil {
		return nil, err
	}

	cache.SafeDelete(ctx, s.cacheHelper, "list:active")
	return enrolled, nil
}

// ListActive serves the public catalog; cached briefly since it is the
// hottest read path.
func (s *SubjectPostgreSQL) ListActive(ctx context.Context, tx *gorm.DB) ([]*models.Subject, error) {
	var subjects []*models.Subject

	err := s.cacheHelper.CacheOrExecute(ctx, "list:active", &subjects, cache.SubjectCacheConfig.TTL, func() (interface{}, error) {
		var fresh []*models.Subject
		err := s.getDB(tx).WithContext(ctx).
			Preload("Owner").
			Where("is_active = ?", true).
			Order("subject_code ASC").
			Find(&fresh).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list active subjects: %w", err)
		}
		s.countSeats(ctx, tx, fresh)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

func (s *SubjectPostgreSQL) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Subject, error) {
	var subjects []*models.Subject
	err := s.getDB(tx).WithContext(ctx).
		Preload("Enrollments").
		Preload("Enrollments.Student").
		Where("owner_id = ?", ownerID).
		Order("subject_code ASC").
		Find(&subjects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects by owner: %w", err)
	}
	for _, subject := range subjects {
		subject.EnrolledCount = len(subject.Enrollments)
	}
	return subjects, nil
}

func (s *SubjectPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Subject, error) {
	var subjects []*models.Subject
	err := s.getDB(tx).WithContext(ctx).
		Preload("Owner").
		Joins("JOIN enrollments ON enrollments.subject_id = subjects.id").
		Where("enrollments.student_id = ?", studentID).
		Order("subjects.subject_code ASC").
		Find(&subjects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects by student: %w", err)
	}
	return subjects, nil
}

func (s *SubjectPostgreSQL) SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error {
	res := s.getDB(tx).WithContext(ctx).
		Model(&models.Subject{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update subject active flag: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	cache.SafeDelete(ctx, s.cacheHelper, "list:active")
	return nil
}

func (s *SubjectPostgreSQL) countSeats(ctx context.Context, tx *gorm.DB, subjects []*models.Subject) {
	for _, subject := range subjects {
		var count int64
		err := s.getDB(tx).WithContext(ctx).
			Model(&models.Enrollment{}).
			Where("subject_id = ?", subject.ID).
			Count(&count).Error
		if err == nil {
			subject.EnrolledCount = int(count)
		}
	}
}
