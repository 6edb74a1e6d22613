package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

func TestClassHandler_CreateAndList(t *testing.T) {
	f := newAPIFixture(t)
	teacher := f.seedUser(t, "teacher@example.com", models.RoleTeacher)

	status, env := f.do(t, teacher, http.MethodPost, "/api/v1/classes", classPayload(teacher.id, 30))
	require.Equal(t, fiber.StatusCreated, status)
	require.True(t, env.Success)

	var created dto.ClassResponse
	decodeData(t, env, &created)
	require.Equal(t, "Algebra I", created.Name)
	require.Zero(t, created.CurrentStudents)
	require.True(t, created.IsActive)

	status, env = f.do(t, teacher, http.MethodGet, fmt.Sprintf("/api/v1/classes?teacher_id=%d", teacher.id), nil)
	require.Equal(t, fiber.StatusOK, status)
	var listed []dto.ClassResponse
	decodeData(t, env, &listed)
	require.Len(t, listed, 1)
}

func TestClassHandler_RejectsInvalidPayloadAndForeignTeacher(t *testing.T) {
	f := newAPIFixture(t)
	teacher := f.seedUser(t, "teacher@example.com", models.RoleTeacher)

	invalid := classPayload(teacher.id, 0)
	status, env := f.do(t, teacher, http.MethodPost, "/api/v1/classes", invalid)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.False(t, env.Success)

	status, _ = f.do(t, teacher, http.MethodPost, "/api/v1/classes", classPayload(teacher.id+100, 30))
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.do(t, teacher, http.MethodGet, "/api/v1/classes/999", nil)
	require.Equal(t, fiber.StatusNotFound, status)

	status, _ = f.do(t, teacher, http.MethodGet, "/api/v1/classes/abc", nil)
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestStudentHandler_EnrollmentLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.seedUser(t, "admin@example.com", models.RoleAdmin)

	status, env := f.do(t, admin, http.MethodPost, "/api/v1/classes", classPayload(admin.id, 1))
	require.Equal(t, fiber.StatusCreated, status)
	var class dto.ClassResponse
	decodeData(t, env, &class)

	status, env = f.do(t, admin, http.MethodPost, "/api/v1/students", studentPayload("S-100"))
	require.Equal(t, fiber.StatusCreated, status)
	var first dto.StudentResponse
	decodeData(t, env, &first)

	status, _ = f.do(t, admin, http.MethodPost, "/api/v1/students", studentPayload("S-100"))
	require.Equal(t, fiber.StatusConflict, status)

	status, env = f.do(t, admin, http.MethodPost, fmt.Sprintf("/api/v1/students/%d/enrollments", first.ID), map[string]interface{}{"class_id": class.ID})
	require.Equal(t, fiber.StatusCreated, status)
	var enrolled dto.StudentResponse
	decodeData(t, env, &enrolled)
	require.Equal(t, []uint{class.ID}, enrolled.EnrolledClasses)
	require.InDelta(t, 1.5, enrolled.TotalCredits, 0.0001)

	status, _ = f.do(t, admin, http.MethodPost, fmt.Sprintf("/api/v1/students/%d/enrollments", first.ID), map[string]interface{}{"class_id": class.ID})
	require.Equal(t, fiber.StatusConflict, status)

	status, env = f.do(t, admin, http.MethodPost, "/api/v1/students", studentPayload("S-101"))
	require.Equal(t, fiber.StatusCreated, status)
	var second dto.StudentResponse
	decodeData(t, env, &second)

	status, env = f.do(t, admin, http.MethodPost, fmt.Sprintf("/api/v1/students/%d/enrollments", second.ID), map[string]interface{}{"class_id": class.ID})
	require.Equal(t, fiber.StatusConflict, status)
	require.Contains(t, env.Message, "capacity")

	status, env = f.do(t, admin, http.MethodGet, "/api/v1/students/by-student-id/S-100", nil)
	require.Equal(t, fiber.StatusOK, status)
	var fetched dto.StudentResponse
	decodeData(t, env, &fetched)
	require.Equal(t, first.ID, fetched.ID)
}

func TestCreditHandler_DecisionRequiresManager(t *testing.T) {
	f := newAPIFixture(t)
	teacher := f.seedUser(t, "teacher@example.com", models.RoleTeacher)
	moderator := f.seedUser(t, "moderator@example.com", models.RoleModerator)

	_, env := f.do(t, teacher, http.MethodPost, "/api/v1/classes", classPayload(teacher.id, 30))
	var class dto.ClassResponse
	decodeData(t, env, &class)
	_, env = f.do(t, teacher, http.MethodPost, "/api/v1/students", studentPayload("S-200"))
	var student dto.StudentResponse
	decodeData(t, env, &student)

	status, env := f.do(t, teacher, http.MethodPost, "/api/v1/credits", map[string]interface{}{
		"student_id":      student.ID,
		"class_id":        class.ID,
		"credits_awarded": 3,
		"reason":          "Science fair",
		"type":            models.CreditTypeAchievement,
	})
	require.Equal(t, fiber.StatusCreated, status)
	var credit dto.CreditResponse
	decodeData(t, env, &credit)
	require.Equal(t, models.CreditStatusPending, credit.Status)

	status, _ = f.do(t, teacher, http.MethodPost, fmt.Sprintf("/api/v1/credits/%d/approve", credit.ID), nil)
	require.Equal(t, fiber.StatusForbidden, status)

	status, env = f.do(t, moderator, http.MethodPost, fmt.Sprintf("/api/v1/credits/%d/approve", credit.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	decodeData(t, env, &credit)
	require.Equal(t, models.CreditStatusApproved, credit.Status)

	status, _ = f.do(t, moderator, http.MethodPost, fmt.Sprintf("/api/v1/credits/%d/reject", credit.ID), nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env = f.do(t, moderator, http.MethodGet, "/api/v1/credits/statistics", nil)
	require.Equal(t, fiber.StatusOK, status)
	var stats dto.CreditStatisticsResponse
	decodeData(t, env, &stats)
	require.Equal(t, 1, stats.ApprovedCredits)
	require.InDelta(t, 3, stats.TotalCredits, 0.0001)

	status, env = f.do(t, moderator, http.MethodGet, fmt.Sprintf("/api/v1/credits?student_id=%d&status=approved", student.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	var listed []dto.CreditResponse
	decodeData(t, env, &listed)
	require.Len(t, listed, 1)

	status, _ = f.do(t, moderator, http.MethodGet, "/api/v1/credits?student_id=x", nil)
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestMessageHandler_InboxAndReadReceipts(t *testing.T) {
	f := newAPIFixture(t)
	sender := f.seedUser(t, "sender@example.com", models.RoleTeacher)
	receiver := f.seedUser(t, "receiver@example.com", models.RoleTeacher)
	bystander := f.seedUser(t, "bystander@example.com", models.RoleTeacher)

	status, env := f.do(t, sender, http.MethodPost, "/api/v1/messages", map[string]interface{}{
		"receiver_id": receiver.id,
		"subject":     "Field trip",
		"content":     "<b>Bring</b> lunch",
		"type":        models.MessageTypeDirect,
	})
	require.Equal(t, fiber.StatusCreated, status)
	var message dto.MessageResponse
	decodeData(t, env, &message)
	require.Equal(t, "Bring lunch", message.Content)
	require.Equal(t, models.PriorityMedium, message.Priority)

	status, env = f.do(t, receiver, http.MethodGet, "/api/v1/messages/unread-count", nil)
	require.Equal(t, fiber.StatusOK, status)
	var unread dto.UnreadCountResponse
	decodeData(t, env, &unread)
	require.Equal(t, int64(1), unread.Unread)

	status, _ = f.do(t, bystander, http.MethodPatch, fmt.Sprintf("/api/v1/messages/%d/read", message.ID), nil)
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.do(t, receiver, http.MethodPatch, fmt.Sprintf("/api/v1/messages/%d/read", message.ID), nil)
	require.Equal(t, fiber.StatusOK, status)

	status, env = f.do(t, receiver, http.MethodGet, "/api/v1/messages/inbox", nil)
	require.Equal(t, fiber.StatusOK, status)
	var inbox []dto.MessageResponse
	decodeData(t, env, &inbox)
	require.Len(t, inbox, 1)
	require.True(t, inbox[0].IsRead)

	status, _ = f.do(t, bystander, http.MethodDelete, fmt.Sprintf("/api/v1/messages/%d", message.ID), nil)
	require.Equal(t, fiber.StatusForbidden, status)
	status, _ = f.do(t, sender, http.MethodDelete, fmt.Sprintf("/api/v1/messages/%d", message.ID), nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = f.do(t, sender, http.MethodPost, "/api/v1/messages", map[string]interface{}{
		"subject": "Quiz",
		"content": "Friday",
		"type":    models.MessageTypeClassAnnouncement,
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestUserHandler_AdminOnlyCreateAndSelfUpdate(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.seedUser(t, "admin@example.com", models.RoleAdmin)
	teacher := f.seedUser(t, "teacher@example.com", models.RoleTeacher)

	payload := map[string]interface{}{
		"email":         "New.Teacher@Example.com",
		"name":          "New Teacher",
		"role":          models.RoleTeacher,
		"password_hash": "hashed-secret",
	}
	status, _ := f.do(t, teacher, http.MethodPost, "/api/v1/users", payload)
	require.Equal(t, fiber.StatusForbidden, status)

	status, env := f.do(t, admin, http.MethodPost, "/api/v1/users", payload)
	require.Equal(t, fiber.StatusCreated, status)
	var created dto.UserResponse
	decodeData(t, env, &created)
	require.Equal(t, "new.teacher@example.com", created.Email)

	status, _ = f.do(t, admin, http.MethodPost, "/api/v1/users", payload)
	require.Equal(t, fiber.StatusConflict, status)

	status, _ = f.do(t, teacher, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", created.ID), map[string]interface{}{"name": "Hijacked"})
	require.Equal(t, fiber.StatusForbidden, status)

	status, env = f.do(t, teacher, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", teacher.id), map[string]interface{}{"department": "Science"})
	require.Equal(t, fiber.StatusOK, status)
	var updated dto.UserResponse
	decodeData(t, env, &updated)
	require.Equal(t, "Science", updated.Department)

	status, env = f.do(t, teacher, http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, fiber.StatusOK, status)
	var me dto.UserResponse
	decodeData(t, env, &me)
	require.Equal(t, teacher.id, me.ID)
}

func TestAuditHandler_ListsMutationsNewestFirst(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.seedUser(t, "admin@example.com", models.RoleAdmin)

	f.do(t, admin, http.MethodPost, "/api/v1/classes", classPayload(admin.id, 30))
	f.do(t, admin, http.MethodPost, "/api/v1/students", studentPayload("S-300"))

	status, env := f.do(t, admin, http.MethodGet, "/api/v1/audit/user-logs?page_size=1", nil)
	require.Equal(t, fiber.StatusOK, status)
	var logs dto.UserLogListResponse
	decodeData(t, env, &logs)
	require.Len(t, logs.Items, 1)
	require.Equal(t, int64(2), logs.Pagination.TotalItems)
	require.Equal(t, 2, logs.Pagination.TotalPages)

	status, env = f.do(t, admin, http.MethodGet, "/api/v1/audit/events?category=class", nil)
	require.Equal(t, fiber.StatusOK, status)
	var events dto.EventListResponse
	decodeData(t, env, &events)
	require.Len(t, events.Items, 1)
	require.Equal(t, "class_created", events.Items[0].EventType)

	status, _ = f.do(t, admin, http.MethodGet, "/api/v1/audit/events?since=yesterday", nil)
	require.Equal(t, fiber.StatusBadRequest, status)
}
