package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

func TestCreditServiceApprovalFlow(t *testing.T) {
	f := newServiceFixture(t)
	svc := NewCreditService(f.repos, f.tx, f.activity, f.validator, nil, 0, testLogger())
	ctx := context.Background()
	class := f.createClass(t, 5, 10, 0)
	student := f.createStudent(t, "S-1")
	teacher := models.UserActor(5, models.RoleTeacher)

	awarded, err := svc.Award(ctx, teacher, dto.CreditAwardRequest{
		StudentID:      student.ID,
		ClassID:        class.ID,
		CreditsAwarded: 2,
		Reason:         "Science fair",
		Type:           models.CreditTypeAchievement,
	})
	require.NoError(t, err)
	require.Equal(t, models.CreditStatusPending, awarded.Status)
	require.Equal(t, uint(5), awarded.TeacherID)
	require.Len(t, f.events(t, "credits_awarded"), 1)

	pending, err := f.repos.Students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.Zero(t, pending.TotalCredits)

	_, err = svc.Approve(ctx, teacher, awarded.ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	moderator := models.UserActor(2, models.RoleModerator)
	approved, err := svc.Approve(ctx, moderator, awarded.ID)
	require.NoError(t, err)
	require.Equal(t, models.CreditStatusApproved, approved.Status)
	require.Equal(t, uint(2), *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	credited, err := f.repos.Students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.InDelta(t, 2, credited.TotalCredits, 0.0001)
	require.Len(t, f.userLogs(t, "credits_approved"), 1)
	require.Len(t, f.events(t, "credits_approved"), 1)

	_, err = svc.Reject(ctx, moderator, awarded.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	require.Empty(t, f.userLogs(t, "credits_rejected"))

	_, err = svc.Approve(ctx, moderator, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreditServiceRejectLeavesTotalsAlone(t *testing.T) {
	f := newServiceFixture(t)
	svc := NewCreditService(f.repos, f.tx, f.activity, f.validator, nil, 0, testLogger())
	ctx := context.Background()
	class := f.createClass(t, 5, 10, 0)
	student := f.createStudent(t, "S-1")

	awarded, err := svc.Award(ctx, models.UserActor(5, models.RoleTeacher), dto.CreditAwardRequest{
		StudentID: student.ID, ClassID: class.ID, CreditsAwarded: 3, Reason: "Homework", Type: models.CreditTypeCompletion,
	})
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, models.UserActor(1, models.RoleAdmin), awarded.ID)
	require.NoError(t, err)
	require.Equal(t, models.CreditStatusRejected, rejected.Status)
	require.Empty(t, f.events(t, "credits_rejected"))

	stored, err := f.repos.Students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.Zero(t, stored.TotalCredits)

	_, err = svc.Award(ctx, models.UserActor(5, models.RoleTeacher), dto.CreditAwardRequest{
		StudentID: 999, ClassID: class.ID, CreditsAwarded: 1, Reason: "x", Type: models.CreditTypeCompletion,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreditServiceStatisticsUsesCache(t *testing.T) {
	f := newServiceFixture(t)
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	svc := NewCreditService(f.repos, f.tx, f.activity, f.validator, client, time.Minute, testLogger())
	ctx := context.Background()
	class := f.createClass(t, 5, 10, 0)
	student := f.createStudent(t, "S-1")
	teacher := models.UserActor(5, models.RoleTeacher)
	admin := models.UserActor(1, models.RoleAdmin)

	first, err := svc.Award(ctx, teacher, dto.CreditAwardRequest{StudentID: student.ID, ClassID: class.ID, CreditsAwarded: 2, Reason: "a", Type: models.CreditTypeAchievement})
	require.NoError(t, err)
	_, err = svc.Award(ctx, teacher, dto.CreditAwardRequest{StudentID: student.ID, ClassID: class.ID, CreditsAwarded: 4, Reason: "b", Type: models.CreditTypeAchievement})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, admin, first.ID)
	require.NoError(t, err)

	stats, err := svc.Statistics(ctx, nil, nil)
	require.NoError(t, err)
	require.False(t, stats.CacheHit)
	require.InDelta(t, 2, stats.TotalCredits, 0.0001)
	require.Equal(t, 1, stats.ApprovedCredits)
	require.Equal(t, 1, stats.PendingCredits)
	require.Equal(t, 2, stats.TotalRecords)

	cached, err := svc.Statistics(ctx, nil, nil)
	require.NoError(t, err)
	require.True(t, cached.CacheHit)

	_, err = svc.Award(ctx, teacher, dto.CreditAwardRequest{StudentID: student.ID, ClassID: class.ID, CreditsAwarded: 1, Reason: "c", Type: models.CreditTypeAchievement})
	require.NoError(t, err)

	refreshed, err := svc.Statistics(ctx, nil, nil)
	require.NoError(t, err)
	require.False(t, refreshed.CacheHit)
	require.Equal(t, 3, refreshed.TotalRecords)
}
