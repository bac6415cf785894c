package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messenger/internal/domain"
	"messenger/internal/event"
	"messenger/internal/security"
	"messenger/internal/service"
)

const (
	aliceID int64 = 1
	bobID   int64 = 2
	eveID   int64 = 3
)

func directConversation(id int64) *domain.Conversation {
	return &domain.Conversation{ID: id, UserAID: aliceID, UserBID: bobID}
}

type deliveryFixture struct {
	convRepo *MockConversationRepo
	msgRepo  *MockMessageRepo
	userRepo *MockUserRepo
	pusher   *fakePusher
	svc      *service.DeliveryService
}

func newDeliveryFixture(t *testing.T, online map[int64]int) *deliveryFixture {
	t.Helper()

	convRepo := new(MockConversationRepo)
	msgRepo := new(MockMessageRepo)
	userRepo := new(MockUserRepo)
	pusher := newFakePusher(online)

	encryptor, err := security.NewEncryptor([]byte("test-encryption-key"))
	require.NoError(t, err)

	svc := service.NewDeliveryService(
		service.NewAccessGuard(convRepo),
		convRepo,
		msgRepo,
		userRepo,
		encryptor,
		pusher,
		zap.NewNop(),
		1000,
	)
	return &deliveryFixture{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		userRepo: userRepo,
		pusher:   pusher,
		svc:      svc,
	}
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newDeliveryFixture(t, map[int64]int{aliceID: 1, bobID: 1})

		f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)
		f.msgRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.SenderID == aliceID && m.Status == domain.StatusSent
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Message).ID = 100
		}).Return(nil)
		f.convRepo.On("SetLastMessage", mock.Anything, int64(10), int64(100)).Return(nil)
		f.userRepo.On("GetByID", mock.Anything, aliceID).Return(&domain.User{ID: aliceID, Name: "alice"}, nil)
		f.msgRepo.On("UpdateStatus", mock.Anything, int64(100), domain.StatusDelivered).Return(nil)

		msg, err := f.svc.SendMessage(ctx, aliceID, service.SendMessageInput{
			ConversationID: 10,
			Content:        "hello",
		})
		require.NoError(t, err)
		require.NotNil(t, msg)

		// Caller sees the state it produced; the delivered advance is a
		// separate store-side step.
		assert.Equal(t, domain.StatusSent, msg.Status)
		assert.NotEqual(t, "hello", msg.Content, "content must be stored encrypted")
		f.msgRepo.AssertCalled(t, "UpdateStatus", mock.Anything, int64(100), domain.StatusDelivered)

		// Both participants get exactly one message:received event.
		for _, userID := range []int64{aliceID, bobID} {
			evs := f.pusher.eventsFor(userID)
			require.Len(t, evs, 1)
			received, ok := evs[0].(event.MessageReceived)
			require.True(t, ok)
			assert.Equal(t, "hello", received.Message.Content)
			assert.Equal(t, "alice", received.Message.SenderName)
		}
	})

	t.Run("OfflineRecipientStaysSent", func(t *testing.T) {
		f := newDeliveryFixture(t, map[int64]int{aliceID: 1})

		f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)
		f.msgRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Message).ID = 101
		}).Return(nil)
		f.convRepo.On("SetLastMessage", mock.Anything, int64(10), int64(101)).Return(nil)
		f.userRepo.On("GetByID", mock.Anything, aliceID).Return(&domain.User{ID: aliceID, Name: "alice"}, nil)

		msg, err := f.svc.SendMessage(ctx, aliceID, service.SendMessageInput{
			ConversationID: 10,
			Content:        "anyone there?",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSent, msg.Status)
		f.msgRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NonParticipant", func(t *testing.T) {
		f := newDeliveryFixture(t, nil)

		f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)

		msg, err := f.svc.SendMessage(ctx, eveID, service.SendMessageInput{
			ConversationID: 10,
			Content:        "let me in",
		})
		assert.Nil(t, msg)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		f.msgRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.pusher.pushes)
	})

	t.Run("UnknownConversation", func(t *testing.T) {
		f := newDeliveryFixture(t, nil)

		f.convRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, nil)

		_, err := f.svc.SendMessage(ctx, aliceID, service.SendMessageInput{
			ConversationID: 404,
			Content:        "hello?",
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("EmptyContent", func(t *testing.T) {
		f := newDeliveryFixture(t, nil)

		_, err := f.svc.SendMessage(ctx, aliceID, service.SendMessageInput{ConversationID: 10})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		f.convRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("FileOnlyMessageAllowed", func(t *testing.T) {
		f := newDeliveryFixture(t, nil)

		path := "uploads/photo.png"
		kind := "image/png"
		f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)
		f.msgRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.FilePath != nil && *m.FilePath == path
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Message).ID = 102
		}).Return(nil)
		f.convRepo.On("SetLastMessage", mock.Anything, int64(10), int64(102)).Return(nil)
		f.userRepo.On("GetByID", mock.Anything, aliceID).Return(&domain.User{ID: aliceID, Name: "alice"}, nil)

		msg, err := f.svc.SendMessage(ctx, aliceID, service.SendMessageInput{
			ConversationID: 10,
			FilePath:       &path,
			FileType:       &kind,
		})
		require.NoError(t, err)
		assert.Equal(t, &kind, msg.FileType)
	})

	t.Run("ContentTooLong", func(t *testing.T) {
		f := newDeliveryFixture(t, nil)

		_, err := f.svc.SendMessage(ctx, aliceID, service.SendMessageInput{
			ConversationID: 10,
			Content:        strings.Repeat("x", 1001),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("MultiDeviceRecipientSingleEventPerDevice", func(t *testing.T) {
		f := newDeliveryFixture(t, map[int64]int{bobID: 3})

		f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)
		f.msgRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Message).ID = 103
		}).Return(nil)
		f.convRepo.On("SetLastMessage", mock.Anything, int64(10), int64(103)).Return(nil)
		f.userRepo.On("GetByID", mock.Anything, aliceID).Return(&domain.User{ID: aliceID, Name: "alice"}, nil)
		f.msgRepo.On("UpdateStatus", mock.Anything, int64(103), domain.StatusDelivered).Return(nil)

		_, err := f.svc.SendMessage(ctx, aliceID, service.SendMessageInput{
			ConversationID: 10,
			Content:        "ping",
		})
		require.NoError(t, err)

		// One push per user; the registry fans out to each device itself.
		assert.Len(t, f.pusher.eventsFor(bobID), 1)
		assert.Len(t, f.pusher.eventsFor(aliceID), 1)
	})
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("AdvancesAndNotifiesSenderOnly", func(t *testing.T) {
		f := newDeliveryFixture(t, map[int64]int{aliceID: 1, bobID: 1})

		f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)
		f.msgRepo.On("GetByID", mock.Anything, int64(100)).Return(&domain.Message{
			ID: 100, ConversationID: 10, SenderID: aliceID, Status: domain.StatusDelivered,
		}, nil)
		f.msgRepo.On("UpdateStatus", mock.Anything, int64(100), domain.StatusRead).Return(nil)

		err := f.svc.MarkRead(ctx, bobID, 10, 100)
		require.NoError(t, err)

		evs := f.pusher.eventsFor(aliceID)
		require.Len(t, evs, 1)
		read, ok := evs[0].(event.MessageRead)
		require.True(t, ok)
		assert.Equal(t, int64(100), read.MessageID)
		assert.Equal(t, bobID, read.ReaderID)
		assert.Empty(t, f.pusher.eventsFor(bobID), "the reader gets no read event")
	})

	t.Run("SkipsDeliveredDirectlyToRead", func(t *testing.T) {
		f := newDeliveryFixture(t, nil)

		f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)
		f.msgRepo.On("GetByID", mock.Anything, int64(100)).Return(&domain.Message{
			ID: 100, ConversationID: 10, SenderID: aliceID, Status: domain.StatusSent,
		}, nil)
		f.msgRepo.On("UpdateStatus", mock.Anything, int64(100), domain.StatusRead).Return(nil)

		require.NoError(t, f.svc.MarkRead(ctx, bobID, 10, 100))
		f.msgRepo.AssertCalled(t, "UpdateStatus", mock.Anything, int64(100), domain.StatusRead)
	})

	t.Run("AlreadyReadDoesNotRegress", func(t *testing.T) {
		f := newDeliveryFixture(t, nil)

		f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)
		f.msgRepo.On("GetByID", mock.Anything, int64(100)).Return(&domain.Message{
			ID: 100, ConversationID: 10, SenderID: aliceID, Status: domain.StatusRead,
		}, nil)

		require.NoError(t, f.svc.MarkRead(ctx, bobID, 10, 100))
		f.msgRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("OwnMessageIsNoOp", func(t *testing.T) {
		f := newDeliveryFixture(t, nil)

		f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)
		f.msgRepo.On("GetByID", mock.Anything, int64(100)).Return(&domain.Message{
			ID: 100, ConversationID: 10, SenderID: bobID, Status: domain.StatusSent,
		}, nil)

		require.NoError(t, f.svc.MarkRead(ctx, bobID, 10, 100))
		f.msgRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.pusher.pushes)
	})

	t.Run("MessageFromOtherConversation", func(t *testing.T) {
		f := newDeliveryFixture(t, nil)

		f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)
		f.msgRepo.On("GetByID", mock.Anything, int64(200)).Return(&domain.Message{
			ID: 200, ConversationID: 99, SenderID: aliceID, Status: domain.StatusSent,
		}, nil)

		assert.ErrorIs(t, f.svc.MarkRead(ctx, bobID, 10, 200), domain.ErrNotFound)
	})

	t.Run("NonParticipant", func(t *testing.T) {
		f := newDeliveryFixture(t, nil)

		f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)

		assert.ErrorIs(t, f.svc.MarkRead(ctx, eveID, 10, 100), domain.ErrNotFound)
		f.msgRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestListMessages(t *testing.T) {
	ctx := context.Background()

	f := newDeliveryFixture(t, nil)

	encryptor, err := security.NewEncryptor([]byte("test-encryption-key"))
	require.NoError(t, err)
	first, err := encryptor.Encrypt("first")
	require.NoError(t, err)
	second, err := encryptor.Encrypt("second")
	require.NoError(t, err)

	f.convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)
	// Repository returns newest first.
	f.msgRepo.On("ListForConversation", mock.Anything, int64(10), time.Time{}, 50).Return([]*domain.Message{
		{ID: 2, ConversationID: 10, SenderID: bobID, Content: second, Status: domain.StatusRead},
		{ID: 1, ConversationID: 10, SenderID: aliceID, Content: first, Status: domain.StatusRead},
	}, nil)
	f.userRepo.On("GetByID", mock.Anything, aliceID).Return(&domain.User{ID: aliceID, Name: "alice"}, nil)
	f.userRepo.On("GetByID", mock.Anything, bobID).Return(&domain.User{ID: bobID, Name: "bob"}, nil)

	msgs, err := f.svc.ListMessages(ctx, aliceID, 10, time.Time{}, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	// Chronological order, decrypted, sender names resolved.
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "alice", msgs[0].SenderName)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "bob", msgs[1].SenderName)
}
