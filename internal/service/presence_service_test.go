package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messenger/internal/event"
	"messenger/internal/service"
)

func TestAnnounceOnline(t *testing.T) {
	ctx := context.Background()

	t.Run("ReachesContactsOnly", func(t *testing.T) {
		contacts := new(MockContactRepo)
		pusher := newFakePusher(map[int64]int{bobID: 1})
		b := service.NewPresenceBroadcaster(contacts, pusher, zap.NewNop())

		contacts.On("ListContactIDs", mock.Anything, aliceID).Return([]int64{bobID, eveID}, nil)

		b.AnnounceOnline(ctx, aliceID)

		for _, contactID := range []int64{bobID, eveID} {
			evs := pusher.eventsFor(contactID)
			require.Len(t, evs, 1)
			online, ok := evs[0].(event.UserOnline)
			require.True(t, ok)
			assert.Equal(t, aliceID, online.UserID)
		}
		assert.Empty(t, pusher.eventsFor(aliceID), "no self announcement")
	})

	t.Run("NoContacts", func(t *testing.T) {
		contacts := new(MockContactRepo)
		pusher := newFakePusher(nil)
		b := service.NewPresenceBroadcaster(contacts, pusher, zap.NewNop())

		contacts.On("ListContactIDs", mock.Anything, aliceID).Return([]int64{}, nil)

		b.AnnounceOnline(ctx, aliceID)
		assert.Empty(t, pusher.pushes)
	})

	t.Run("RepositoryFailureSwallowed", func(t *testing.T) {
		contacts := new(MockContactRepo)
		pusher := newFakePusher(nil)
		b := service.NewPresenceBroadcaster(contacts, pusher, zap.NewNop())

		contacts.On("ListContactIDs", mock.Anything, aliceID).Return(nil, errors.New("db down"))

		b.AnnounceOnline(ctx, aliceID)
		assert.Empty(t, pusher.pushes)
	})
}

func TestAnnounceOffline(t *testing.T) {
	contacts := new(MockContactRepo)
	pusher := newFakePusher(nil)
	b := service.NewPresenceBroadcaster(contacts, pusher, zap.NewNop())

	contacts.On("ListContactIDs", mock.Anything, aliceID).Return([]int64{bobID}, nil)

	b.AnnounceOffline(context.Background(), aliceID)

	evs := pusher.eventsFor(bobID)
	require.Len(t, evs, 1)
	offline, ok := evs[0].(event.UserOffline)
	require.True(t, ok)
	assert.Equal(t, aliceID, offline.UserID)
}

func TestRelayTyping(t *testing.T) {
	ctx := context.Background()

	t.Run("ForwardsToOtherParticipant", func(t *testing.T) {
		convRepo := new(MockConversationRepo)
		pusher := newFakePusher(map[int64]int{bobID: 1})
		relay := service.NewSignalRelay(service.NewAccessGuard(convRepo), pusher, zap.NewNop())

		convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)

		relay.RelayTyping(ctx, aliceID, 10, true)

		evs := pusher.eventsFor(bobID)
		require.Len(t, evs, 1)
		typing, ok := evs[0].(event.Typing)
		require.True(t, ok)
		assert.Equal(t, aliceID, typing.SenderID)
		assert.True(t, typing.IsTyping)
		assert.Empty(t, pusher.eventsFor(aliceID), "sender gets no typing echo")
	})

	t.Run("OfflineRecipientSilentlyMissed", func(t *testing.T) {
		convRepo := new(MockConversationRepo)
		pusher := newFakePusher(nil)
		relay := service.NewSignalRelay(service.NewAccessGuard(convRepo), pusher, zap.NewNop())

		convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)

		// Push is attempted and accepted by zero connections; no error
		// surfaces anywhere.
		relay.RelayTyping(ctx, aliceID, 10, false)
		assert.Len(t, pusher.eventsFor(bobID), 1)
	})

	t.Run("NonParticipantDropped", func(t *testing.T) {
		convRepo := new(MockConversationRepo)
		pusher := newFakePusher(nil)
		relay := service.NewSignalRelay(service.NewAccessGuard(convRepo), pusher, zap.NewNop())

		convRepo.On("GetByID", mock.Anything, int64(10)).Return(directConversation(10), nil)

		relay.RelayTyping(ctx, eveID, 10, true)
		assert.Empty(t, pusher.pushes)
	})

	t.Run("UnknownConversationDropped", func(t *testing.T) {
		convRepo := new(MockConversationRepo)
		pusher := newFakePusher(nil)
		relay := service.NewSignalRelay(service.NewAccessGuard(convRepo), pusher, zap.NewNop())

		convRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, nil)

		relay.RelayTyping(ctx, aliceID, 404, true)
		assert.Empty(t, pusher.pushes)
	})
}
