package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/repository"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/tracker"
)

// StudentService manages students and their class enrollments.
type StudentService interface {
	Create(ctx context.Context, actor models.Actor, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	GetByStudentID(ctx context.Context, studentID string) (dto.StudentResponse, error)
	List(ctx context.Context, req dto.StudentListRequest) ([]dto.StudentResponse, error)
	Update(ctx context.Context, actor models.Actor, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Enroll(ctx context.Context, actor models.Actor, studentID uint, payload dto.EnrollmentRequest) (dto.StudentResponse, error)
}

type studentService struct {
	repos     repository.Repositories
	tx        repository.Transactor
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repos repository.Repositories, tx repository.Transactor, activity ActivityRecorder, validator *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		repos:     repos,
		tx:        tx,
		activity:  activity,
		validator: validator,
		logger:    logger.With().Str("component", "student_service").Logger(),
		now:       time.Now,
	}
}

// Create registers a student. An actor with no type is recorded as the system.
func (s *studentService) Create(ctx context.Context, actor models.Actor, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	ctx, span := startSpan(ctx, "students.create", attribute.String("student.grade", payload.Grade))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}
	if actor.Type == "" {
		actor = models.SystemActor()
	}

	number := strings.TrimSpace(payload.StudentID)
	student := models.Student{
		StudentNumber: number,
		FirstName:     strings.TrimSpace(payload.FirstName),
		LastName:      strings.TrimSpace(payload.LastName),
		Email:         strings.ToLower(strings.TrimSpace(payload.Email)),
		Grade:         strings.TrimSpace(payload.Grade),
		ParentContact: strings.TrimSpace(payload.ParentContact),
		IsActive:      true,
	}

	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Students.GetByStudentNumber(ctx, number); err == nil {
			return duplicate("student", number)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := repos.Students.Create(ctx, &student); err != nil {
			return err
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "student_created",
			TargetType: string(tracker.TargetStudent),
			TargetID:   idString(student.ID),
			After:      dto.NewStudentResponse(student),
			Event: &ActivityEvent{
				Type:     "student_created",
				Category: string(tracker.CategoryStudent),
				Data: map[string]interface{}{
					"studentId": idString(student.ID),
					"grade":     student.Grade,
				},
			},
		})
	})
	if err != nil {
		return dto.StudentResponse{}, failMutation(span, "students.create", err)
	}

	s.logger.Info().Uint("student_id", student.ID).Str("actor_type", string(actor.Type)).Msg("student created")
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.repos.Students.GetByID(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, lookupError(err, "student", id)
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) GetByStudentID(ctx context.Context, studentID string) (dto.StudentResponse, error) {
	studentID = strings.TrimSpace(studentID)
	student, err := s.repos.Students.GetByStudentNumber(ctx, studentID)
	if err != nil {
		return dto.StudentResponse{}, lookupError(err, "student", studentID)
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) ([]dto.StudentResponse, error) {
	students, err := s.repos.Students.List(ctx, repository.StudentFilter{
		Grade:     strings.TrimSpace(req.Grade),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	})
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponseSlice(students), nil
}

func (s *studentService) Update(ctx context.Context, actor models.Actor, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	ctx, span := startSpan(ctx, "students.update", attribute.Int64("student.id", int64(id)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	updates := make(map[string]interface{})
	if payload.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*payload.FirstName)
	}
	if payload.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*payload.LastName)
	}
	if payload.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*payload.Email))
	}
	if payload.Grade != nil {
		updates["grade"] = strings.TrimSpace(*payload.Grade)
	}
	if payload.ParentContact != nil {
		updates["parent_contact"] = strings.TrimSpace(*payload.ParentContact)
	}

	var updated models.Student
	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		before, err := repos.Students.GetByID(ctx, id)
		if err != nil {
			return lookupError(err, "student", id)
		}
		if len(updates) == 0 {
			updated = before
			return nil
		}

		updated, err = repos.Students.Update(ctx, id, updates)
		if err != nil {
			return lookupError(err, "student", id)
		}

		return s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "student_updated",
			TargetType: string(tracker.TargetStudent),
			TargetID:   idString(id),
			Before:     dto.NewStudentResponse(before),
			After:      dto.NewStudentResponse(updated),
		})
	})
	if err != nil {
		return dto.StudentResponse{}, failMutation(span, "students.update", err)
	}

	return dto.NewStudentResponse(updated), nil
}

// Enroll adds the student to a class, takes a seat and books the approved
// enrollment credit. Nothing is written when any check fails.
func (s *studentService) Enroll(ctx context.Context, actor models.Actor, studentID uint, payload dto.EnrollmentRequest) (dto.StudentResponse, error) {
	ctx, span := startSpan(ctx, "students.enroll",
		attribute.Int64("student.id", int64(studentID)),
		attribute.Int64("class.id", int64(payload.ClassID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	var enrolled models.Student
	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Students.GetByID(ctx, studentID); err != nil {
			return lookupError(err, "student", studentID)
		}
		class, err := repos.Classes.GetByID(ctx, payload.ClassID)
		if err != nil {
			return lookupError(err, "class", payload.ClassID)
		}
		if !class.IsActive {
			return fmtInvalidState("class is archived")
		}

		already, err := repos.Students.IsEnrolled(ctx, studentID, class.ID)
		if err != nil {
			return err
		}
		if already {
			return duplicate("enrollment in class", class.ID)
		}

		seated, err := repos.Classes.IncrementStudents(ctx, class.ID)
		if err != nil {
			return err
		}
		if !seated {
			return fmt.Errorf("class %d %w", class.ID, ErrCapacityExceeded)
		}

		now := s.now()
		if err := repos.Students.AddEnrollment(ctx, &models.Enrollment{
			StudentID:  studentID,
			ClassID:    class.ID,
			EnrolledBy: actor.ID(),
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		approver := actor.ID()
		credit := models.Credit{
			StudentID:      studentID,
			ClassID:        class.ID,
			TeacherID:      class.TeacherID,
			CreditsAwarded: class.CreditValue,
			Reason:         "Class enrollment",
			Type:           models.CreditTypeEnrollment,
			Status:         models.CreditStatusApproved,
			ApprovedBy:     &approver,
			CreatedAt:      now,
			ApprovedAt:     &now,
		}
		if err := repos.Credits.Create(ctx, &credit); err != nil {
			return err
		}
		if err := repos.Students.AddCredits(ctx, studentID, credit.CreditsAwarded); err != nil {
			return err
		}

		if err := s.activity.Record(ctx, repos, ActivityEntry{
			Actor:      actor,
			Action:     "student_enrolled",
			TargetType: string(tracker.TargetStudent),
			TargetID:   idString(studentID),
			Metadata: map[string]interface{}{
				"classId":   idString(class.ID),
				"className": class.Name,
			},
			Event: &ActivityEvent{
				Type:     "student_enrolled",
				Category: string(tracker.CategoryStudent),
				Data: map[string]interface{}{
					"studentId": idString(studentID),
					"classId":   idString(class.ID),
					"subject":   class.Subject,
				},
			},
		}); err != nil {
			return err
		}

		enrolled, err = repos.Students.GetByID(ctx, studentID)
		return err
	})
	if err != nil {
		return dto.StudentResponse{}, failMutation(span, "students.enroll", err)
	}

	s.logger.Info().Uint("student_id", studentID).Uint("class_id", payload.ClassID).Msg("student enrolled")
	return dto.NewStudentResponse(enrolled), nil
}
