package services

import (
	"context"
	"testing"

	"zanzar-backend/internal/domain"
	"zanzar-backend/internal/repository"
	zanzar_errors "zanzar-backend/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func notificationFixture(t *testing.T) (*NotificationService, *fakeDispatcher, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	dispatcher := &fakeDispatcher{}
	svc := NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewChatRepository(db),
		repository.NewProfileRepository(db),
		dispatcher,
		nopLogger(),
	)
	return svc, dispatcher, db
}

func TestNotificationService_Create_PersistsAndPushes(t *testing.T) {
	svc, dispatcher, db := notificationFixture(t)
	ctx := context.Background()
	sender := seedProfile(t, db, "sender")
	receiver := seedProfile(t, db, "receiver")

	n, err := svc.Create(ctx, CreateNotificationInput{
		Type:       "follow",
		Content:    "sender comecou a seguir voce",
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
	})
	require.NoError(t, err)
	require.False(t, n.IsRead)

	require.Len(t, dispatcher.profileEvents(receiver.ID, "newNotification"), 1)

	badges := dispatcher.profileEvents(receiver.ID, "allUnreadCounts")
	require.Len(t, badges, 1)
	counts, ok := badges[0].Data.(UnreadCounts)
	require.True(t, ok)
	require.EqualValues(t, 1, counts.UnreadNotifications)
	require.EqualValues(t, 0, counts.UnreadChats)
	require.Equal(t, 0, counts.InvitesCount)
}

func TestNotificationService_Create_RequiresTypeAndReceiver(t *testing.T) {
	svc, _, db := notificationFixture(t)
	sender := seedProfile(t, db, "sender")

	_, err := svc.Create(context.Background(), CreateNotificationInput{SenderID: sender.ID, ReceiverID: uuid.New()})
	require.ErrorIs(t, err, zanzar_errors.ErrInvalidInput)

	_, err = svc.Create(context.Background(), CreateNotificationInput{Type: "follow", SenderID: sender.ID})
	require.ErrorIs(t, err, zanzar_errors.ErrInvalidInput)
}

func TestNotificationService_Create_RejectsSelfNotification(t *testing.T) {
	svc, dispatcher, db := notificationFixture(t)
	sender := seedProfile(t, db, "sender")

	_, err := svc.Create(context.Background(), CreateNotificationInput{
		Type:       "follow",
		SenderID:   sender.ID,
		ReceiverID: sender.ID,
	})
	require.ErrorIs(t, err, zanzar_errors.ErrInvalidInput)
	require.Empty(t, dispatcher.profileEvents(sender.ID, "newNotification"))
}

func TestNotificationService_OfflineReceiverFindsItUnread(t *testing.T) {
	svc, _, db := notificationFixture(t)
	ctx := context.Background()
	sender := seedProfile(t, db, "sender")
	receiver := seedProfile(t, db, "receiver")

	// The push goes nowhere when the receiver has no connection; the
	// durable row is what the client finds on its next listing.
	_, err := svc.Create(ctx, CreateNotificationInput{
		Type:       "orderUpdate",
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
	})
	require.NoError(t, err)

	page, err := svc.List(ctx, receiver.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.EqualValues(t, 1, page.Total)
	require.EqualValues(t, 1, page.UnreadCount)
	require.False(t, page.HasMore)
}

func TestNotificationService_MarkAsRead_OnlyReceiver(t *testing.T) {
	svc, dispatcher, db := notificationFixture(t)
	ctx := context.Background()
	sender := seedProfile(t, db, "sender")
	receiver := seedProfile(t, db, "receiver")
	other := seedProfile(t, db, "other")

	n, err := svc.Create(ctx, CreateNotificationInput{Type: "follow", SenderID: sender.ID, ReceiverID: receiver.ID})
	require.NoError(t, err)

	require.ErrorIs(t, svc.MarkAsRead(ctx, n.ID, other.ID), zanzar_errors.ErrForbidden)
	require.NoError(t, svc.MarkAsRead(ctx, n.ID, receiver.ID))

	badges := dispatcher.profileEvents(receiver.ID, "allUnreadCounts")
	last := badges[len(badges)-1].Data.(UnreadCounts)
	require.EqualValues(t, 0, last.UnreadNotifications)
}

func TestNotificationService_MarkAllAsRead(t *testing.T) {
	svc, _, db := notificationFixture(t)
	ctx := context.Background()
	sender := seedProfile(t, db, "sender")
	receiver := seedProfile(t, db, "receiver")

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, CreateNotificationInput{Type: "follow", SenderID: sender.ID, ReceiverID: receiver.ID})
		require.NoError(t, err)
	}

	marked, err := svc.MarkAllAsRead(ctx, receiver.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, marked)

	marked, err = svc.MarkAllAsRead(ctx, receiver.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, marked)
}

func TestNotificationService_List_Pagination(t *testing.T) {
	svc, _, db := notificationFixture(t)
	ctx := context.Background()
	sender := seedProfile(t, db, "sender")
	receiver := seedProfile(t, db, "receiver")

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, CreateNotificationInput{Type: "follow", SenderID: sender.ID, ReceiverID: receiver.ID})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, receiver.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.EqualValues(t, 5, page.Total)
	require.Equal(t, 3, page.TotalPages)
	require.True(t, page.HasMore)

	last, err := svc.List(ctx, receiver.ID, 3, 2)
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	require.False(t, last.HasMore)
}

func TestNotificationService_Counts_IncludesInvitesAndChats(t *testing.T) {
	svc, _, db := notificationFixture(t)
	ctx := context.Background()
	receiver := seedProfile(t, db, "receiver")

	require.NoError(t, db.Model(&domain.Profile{}).
		Where("id = ?", receiver.ID).
		UpdateColumn("invites", 2).Error)

	counts := svc.Counts(ctx, receiver.ID)
	require.EqualValues(t, 0, counts.UnreadNotifications)
	require.EqualValues(t, 0, counts.UnreadChats)
	require.Equal(t, 2, counts.InvitesCount)
}
