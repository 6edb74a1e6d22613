package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

func classPayload(teacherID uint) dto.ClassCreateRequest {
	return dto.ClassCreateRequest{
		Name:        "Biology",
		TeacherID:   teacherID,
		Subject:     "Science",
		Grade:       "10",
		Schedule:    dto.ClassScheduleRequest{DayOfWeek: 2, StartTime: "09:00", EndTime: "10:30"},
		MaxStudents: 25,
		CreditValue: 1.5,
	}
}

func TestClassServiceCreateWritesAuditTrail(t *testing.T) {
	f := newServiceFixture(t)
	svc := NewClassService(f.repos, f.tx, f.activity, f.validator, testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, models.UserActor(3, models.RoleTeacher), classPayload(3))
	require.NoError(t, err)
	require.Equal(t, 0, created.CurrentStudents)
	require.True(t, created.IsActive)
	require.Equal(t, "09:00", created.Schedule.StartTime)

	logs := f.userLogs(t, "class_created")
	require.Len(t, logs, 1)
	require.Equal(t, "3", *logs[0].UserID)

	events := f.events(t, "class_created")
	require.Len(t, events, 1)
	require.Equal(t, "class", events[0].EventCategory)
	require.Equal(t, "Science", events[0].Data["subject"])
	require.Equal(t, "10", events[0].Data["grade"])
}

func TestClassServiceTeacherCannotActForAnotherTeacher(t *testing.T) {
	f := newServiceFixture(t)
	svc := NewClassService(f.repos, f.tx, f.activity, f.validator, testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, models.UserActor(3, models.RoleTeacher), classPayload(4))
	require.ErrorIs(t, err, ErrUnauthorized)

	class := f.createClass(t, 4, 10, 1)
	name := "Renamed"
	_, err = svc.Update(ctx, models.UserActor(3, models.RoleTeacher), class.ID, dto.ClassUpdateRequest{Name: &name})
	require.ErrorIs(t, err, ErrUnauthorized)

	updated, err := svc.Update(ctx, models.UserActor(1, models.RoleAdmin), class.ID, dto.ClassUpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Empty(t, f.userLogs(t, "class_created"))
	require.Len(t, f.userLogs(t, "class_updated"), 1)
}

func TestClassServiceDeleteArchives(t *testing.T) {
	f := newServiceFixture(t)
	svc := NewClassService(f.repos, f.tx, f.activity, f.validator, testLogger())
	ctx := context.Background()
	class := f.createClass(t, 4, 10, 1)

	require.NoError(t, svc.Delete(ctx, models.UserActor(4, models.RoleTeacher), class.ID))

	listed, err := svc.List(ctx, dto.ClassListRequest{TeacherID: 4})
	require.NoError(t, err)
	require.Empty(t, listed)

	archived, err := svc.Get(ctx, class.ID)
	require.NoError(t, err)
	require.False(t, archived.IsActive)
	require.Len(t, f.userLogs(t, "class_deleted"), 1)

	require.ErrorIs(t, svc.Delete(ctx, models.UserActor(4, models.RoleTeacher), 999), ErrNotFound)
}
