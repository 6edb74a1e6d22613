package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/database"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type serviceFixture struct {
	db        *gorm.DB
	repos     repository.Repositories
	tx        repository.Transactor
	activity  ActivityService
	validator *validator.Validate
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	repos := repository.New(db)
	return serviceFixture{
		db:        db,
		repos:     repos,
		tx:        repository.NewTransactor(db),
		activity:  NewActivityService(repos, testLogger()),
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (f serviceFixture) userLogs(t *testing.T, action string) []models.UserLog {
	t.Helper()
	entries, _, err := f.repos.UserLogs.List(context.Background(), repository.ActivityLogFilter{Action: action})
	require.NoError(t, err)
	return entries
}

func (f serviceFixture) events(t *testing.T, eventType string) []models.Event {
	t.Helper()
	events, _, err := f.repos.Events.List(context.Background(), repository.EventFilter{EventType: eventType})
	require.NoError(t, err)
	return events
}

func (f serviceFixture) createUser(t *testing.T, email, role string) models.User {
	t.Helper()
	user := models.User{Email: email, Name: strings.Split(email, "@")[0], Role: role, PasswordHash: "hashed-secret", IsActive: true}
	require.NoError(t, f.repos.Users.Create(context.Background(), &user))
	return user
}

func (f serviceFixture) createClass(t *testing.T, teacherID uint, maxStudents int, creditValue float64) models.Class {
	t.Helper()
	class := models.Class{
		Name:        "Algebra I",
		TeacherID:   teacherID,
		Subject:     "Math",
		Grade:       "9",
		MaxStudents: maxStudents,
		CreditValue: creditValue,
		IsActive:    true,
	}
	require.NoError(t, f.repos.Classes.Create(context.Background(), &class))
	return class
}

func (f serviceFixture) createStudent(t *testing.T, number string) models.Student {
	t.Helper()
	student := models.Student{StudentNumber: number, FirstName: "Ada", LastName: "Lovelace", Grade: "9", IsActive: true}
	require.NoError(t, f.repos.Students.Create(context.Background(), &student))
	return student
}

func TestActivityServiceRecordWritesLogAndEvent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := WithClientInfo(context.Background(), "10.0.0.1", "test-agent")

	err := f.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		return f.activity.Record(ctx, repos, ActivityEntry{
			Actor:      models.UserActor(4, models.RoleTeacher),
			Action:     "class_created",
			TargetType: "class",
			TargetID:   "9",
			Metadata:   map[string]interface{}{"api_token": "abc", "subject": "Math"},
			Event:      &ActivityEvent{Type: "class_created", Category: "class", Data: map[string]interface{}{"classId": "9"}},
		})
	})
	require.NoError(t, err)

	logs := f.userLogs(t, "class_created")
	require.Len(t, logs, 1)
	require.Equal(t, models.ActorTypeUser, logs[0].ActorType)
	require.Equal(t, "4", *logs[0].UserID)
	require.Equal(t, "10.0.0.1", logs[0].IPAddress)
	require.Equal(t, "test-agent", logs[0].UserAgent)
	metadata, ok := logs[0].Details["metadata"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "***", metadata["api_token"])
	require.Equal(t, "Math", metadata["subject"])

	events := f.events(t, "class_created")
	require.Len(t, events, 1)
	require.Equal(t, logs[0].Timestamp, events[0].Timestamp)
}

func TestActivityServiceListPaginates(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, f.activity.Record(ctx, f.repos, ActivityEntry{Actor: models.SystemActor(), Action: "student_created", TargetType: "student", TargetID: fmt.Sprint(i)}))
	}

	page, err := f.activity.ListUserLogs(ctx, dto.UserLogListRequest{Page: 2, PageSize: 2, ActorType: "system"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, int64(5), page.Pagination.TotalItems)
	require.Equal(t, 3, page.Pagination.TotalPages)
	require.Nil(t, page.Items[0].UserID)

	events, err := f.activity.ListEvents(ctx, dto.EventListRequest{})
	require.NoError(t, err)
	require.Empty(t, events.Items)
	require.Equal(t, 1, events.Pagination.TotalPages)
}
