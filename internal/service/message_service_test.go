package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/dto"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

func TestMessageServiceSendSanitizesAndTracks(t *testing.T) {
	f := newServiceFixture(t)
	svc := NewMessageService(f.repos, f.tx, f.activity, f.validator, testLogger())
	ctx := context.Background()
	sender := f.createUser(t, "sender@school.test", models.RoleTeacher)
	receiver := f.createUser(t, "receiver@school.test", models.RoleTeacher)

	sent, err := svc.Send(ctx, models.UserActor(sender.ID, sender.Role), dto.MessageSendRequest{
		ReceiverID: &receiver.ID,
		Subject:    "<b>Field trip</b>",
		Content:    "Bring lunch<script>alert(1)</script>",
		Type:       models.MessageTypeDirect,
	})
	require.NoError(t, err)
	require.Equal(t, "Field trip", sent.Subject)
	require.Equal(t, "Bring lunch", sent.Content)
	require.Equal(t, models.PriorityMedium, sent.Priority)
	require.False(t, sent.IsRead)

	events := f.events(t, "message_sent")
	require.Len(t, events, 1)
	require.Equal(t, false, events[0].Data["hasAttachments"])
	require.Len(t, f.userLogs(t, "message_sent"), 1)

	_, err = svc.Send(ctx, models.UserActor(sender.ID, sender.Role), dto.MessageSendRequest{Subject: "Hi", Content: "There", Type: models.MessageTypeDirect})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestMessageServiceReadAndDeleteAuthorization(t *testing.T) {
	f := newServiceFixture(t)
	svc := NewMessageService(f.repos, f.tx, f.activity, f.validator, testLogger())
	ctx := context.Background()
	sender := f.createUser(t, "sender@school.test", models.RoleTeacher)
	receiver := f.createUser(t, "receiver@school.test", models.RoleTeacher)
	outsider := f.createUser(t, "outsider@school.test", models.RoleTeacher)

	sent, err := svc.Send(ctx, models.UserActor(sender.ID, sender.Role), dto.MessageSendRequest{
		ReceiverID: &receiver.ID, Subject: "Report", Content: "Due Friday", Type: models.MessageTypeDirect, Priority: models.PriorityHigh,
	})
	require.NoError(t, err)

	unread, err := svc.UnreadCount(ctx, receiver.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), unread.Unread)

	_, err = svc.MarkRead(ctx, models.UserActor(sender.ID, sender.Role), sent.ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	read, err := svc.MarkRead(ctx, models.UserActor(receiver.ID, receiver.Role), sent.ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	unread, err = svc.UnreadCount(ctx, receiver.ID)
	require.NoError(t, err)
	require.Zero(t, unread.Unread)

	require.ErrorIs(t, svc.Delete(ctx, models.UserActor(outsider.ID, outsider.Role), sent.ID), ErrUnauthorized)
	require.NoError(t, svc.Delete(ctx, models.UserActor(sender.ID, sender.Role), sent.ID))
	require.ErrorIs(t, svc.Delete(ctx, models.UserActor(sender.ID, sender.Role), sent.ID), ErrNotFound)
	require.Len(t, f.userLogs(t, "message_deleted"), 1)
}

func TestMessageServiceListingLimits(t *testing.T) {
	f := newServiceFixture(t)
	svc := NewMessageService(f.repos, f.tx, f.activity, f.validator, testLogger())
	ctx := context.Background()
	sender := f.createUser(t, "sender@school.test", models.RoleTeacher)
	class := f.createClass(t, sender.ID, 10, 0)
	actor := models.UserActor(sender.ID, sender.Role)

	for i := 0; i < 3; i++ {
		_, err := svc.Send(ctx, actor, dto.MessageSendRequest{ClassID: &class.ID, Subject: "Quiz", Content: "Chapter review", Type: models.MessageTypeClassAnnouncement})
		require.NoError(t, err)
	}

	announcements, err := svc.ClassAnnouncements(ctx, class.ID, 2)
	require.NoError(t, err)
	require.Len(t, announcements, 2)

	all, err := svc.ClassAnnouncements(ctx, class.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	sent, err := svc.Sent(ctx, sender.ID, 0)
	require.NoError(t, err)
	require.Len(t, sent, 3)

	inbox, err := svc.Inbox(ctx, sender.ID, 0)
	require.NoError(t, err)
	require.Empty(t, inbox)
}
