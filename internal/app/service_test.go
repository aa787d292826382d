package app

import (
	"context"
	"sync"
	"testing"

	"github.com/crimpz/clic/internal/adapter/memory"
	"github.com/crimpz/clic/internal/domain"
	"github.com/crimpz/clic/internal/live"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEvent struct {
	userID int64
	event  live.Event
}

type recordingNotifier struct {
	mu        sync.Mutex
	direct    []sentEvent
	broadcast []live.Event
}

func (n *recordingNotifier) SendToUser(_ context.Context, userID int64, event live.Event) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.direct = append(n.direct, sentEvent{userID: userID, event: event})
	return true
}

func (n *recordingNotifier) BroadcastAll(_ context.Context, event live.Event) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcast = append(n.broadcast, event)
	return 1
}

// plainHasher keeps tests fast.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error)     { return "plain:" + p, nil }
func (plainHasher) Compare(h, p string) (bool, error) { return h == "plain:"+p, nil }

func setupService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()
	store := memory.NewStore(clockwork.NewFakeClock())
	notifier := &recordingNotifier{}
	svc := NewService(Repositories{
		Rooms:    store.Rooms(),
		Messages: store.Messages(),
		Images:   store.Images(),
		Users:    store.Users(),
		Friends:  store.Friends(),
		Voice:    store.Voice(),
	}, notifier, clockwork.NewFakeClock()).WithHasher(plainHasher{})
	return svc, notifier
}

func registerUser(t *testing.T, svc *Service, name string) domain.Identity {
	t.Helper()
	u, err := svc.Register(context.Background(), name, "password123")
	require.NoError(t, err)
	id, err := domain.NewIdentity(u.ID)
	require.NoError(t, err)
	return id
}

func ptr[T any](v T) *T { return &v }

func TestCreateRoom_DefaultsToText(t *testing.T) {
	svc, _ := setupService(t)
	alice := registerUser(t, svc, "alice")

	room, err := svc.CreateRoom(context.Background(), alice, "  Lobby  ", "")
	require.NoError(t, err)
	assert.Equal(t, "Lobby", room.Title)
	assert.Equal(t, domain.RoomTypeText, room.RoomType)
}

func TestCreateRoom_Validation(t *testing.T) {
	svc, _ := setupService(t)
	alice := registerUser(t, svc, "alice")
	ctx := context.Background()

	var invalid *domain.InvalidInputError
	_, err := svc.CreateRoom(ctx, alice, "   ", domain.RoomTypeText)
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.CreateRoom(ctx, alice, "Lobby", "video")
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.CreateRoom(ctx, domain.Identity{}, "Lobby", domain.RoomTypeText)
	assert.ErrorIs(t, err, domain.ErrNoIdentity)
}

func TestRoomLifecycle(t *testing.T) {
	svc, _ := setupService(t)
	alice := registerUser(t, svc, "alice")
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, alice, "Lobby", domain.RoomTypeText)
	require.NoError(t, err)

	updated, err := svc.UpdateRoom(ctx, alice, created.ID, ptr("Main Hall"))
	require.NoError(t, err)
	assert.Equal(t, "Main Hall", updated.Title)

	rooms, err := svc.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Main Hall", rooms[0].Title)

	deleted, err := svc.DeleteRoom(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.GetRoom(ctx, created.ID)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateRoom_RejectsSystemIdentity(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.UpdateRoom(context.Background(), domain.SystemIdentity(), 1, ptr("x"))
	assert.ErrorIs(t, err, domain.ErrSystemIdentity)
}

func TestSendMessage_PersistsThenBroadcasts(t *testing.T) {
	svc, notifier := setupService(t)
	alice := registerUser(t, svc, "alice")
	ctx := context.Background()
	room, err := svc.CreateRoom(ctx, alice, "Lobby", domain.RoomTypeText)
	require.NoError(t, err)

	id, err := svc.SendMessage(ctx, alice, SendMessageRequest{Text: "hi", RoomID: room.ID, UserName: ptr("alice")})
	require.NoError(t, err)
	assert.Positive(t, id)

	msgs, err := svc.MessagesByRoom(ctx, alice, room.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)

	require.Len(t, notifier.broadcast, 1)
	assert.Equal(t, live.NewRoomMessage{RoomID: room.ID, From: "alice", Content: "hi"}, notifier.broadcast[0])
}

func TestSendMessage_ImpersonationDenied(t *testing.T) {
	svc, notifier := setupService(t)
	alice := registerUser(t, svc, "alice")
	registerUser(t, svc, "bob")
	ctx := context.Background()
	room, err := svc.CreateRoom(ctx, alice, "Lobby", domain.RoomTypeText)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, alice, SendMessageRequest{Text: "hi", RoomID: room.ID, UserName: ptr("bob")})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = svc.SendMessage(ctx, alice, SendMessageRequest{Text: "hi", RoomID: room.ID, UserID: ptr(int64(99))})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	assert.Empty(t, notifier.broadcast)
}

func TestSendMessage_UnknownRoomHasNoSideEffects(t *testing.T) {
	svc, notifier := setupService(t)
	alice := registerUser(t, svc, "alice")

	_, err := svc.SendMessage(context.Background(), alice, SendMessageRequest{Text: "hi", RoomID: 42})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "rooms", nf.Entity)
	assert.Empty(t, notifier.broadcast)
}

func TestRecentRoomMessages_Boundary(t *testing.T) {
	svc, _ := setupService(t)
	alice := registerUser(t, svc, "alice")
	ctx := context.Background()
	room, err := svc.CreateRoom(ctx, alice, "Lobby", domain.RoomTypeText)
	require.NoError(t, err)

	var ids []int64
	for _, text := range []string{"one", "two", "three"} {
		id, err := svc.SendMessage(ctx, alice, SendMessageRequest{Text: text, RoomID: room.ID})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	recent, err := svc.RecentRoomMessages(ctx, alice, room.ID, ids[0])
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[1], recent[0].ID)
	assert.Equal(t, ids[2], recent[1].ID)

	none, err := svc.RecentRoomMessages(ctx, alice, room.ID, ids[2])
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPrivateMessages_MergedBothDirections(t *testing.T) {
	svc, notifier := setupService(t)
	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	ctx := context.Background()

	first, err := svc.SendPrivateMessage(ctx, alice, "alice", "bob", "hey bob")
	require.NoError(t, err)
	second, err := svc.SendPrivateMessage(ctx, bob, "bob", "alice", "hey alice")
	require.NoError(t, err)

	convo, err := svc.PrivateMessages(ctx, alice, "bob")
	require.NoError(t, err)
	require.Len(t, convo, 2)
	assert.Equal(t, first, convo[0].ID)
	assert.Equal(t, second, convo[1].ID)
	assert.Equal(t, "bob", convo[1].SenderName)

	require.Len(t, notifier.direct, 2)
	assert.Equal(t, bob.UserID(), notifier.direct[0].userID)
	assert.Equal(t, alice.UserID(), notifier.direct[1].userID)
}

func TestSendPrivateMessage_Rules(t *testing.T) {
	svc, notifier := setupService(t)
	alice := registerUser(t, svc, "alice")
	registerUser(t, svc, "bob")
	ctx := context.Background()

	_, err := svc.SendPrivateMessage(ctx, alice, "bob", "alice", "spoof")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = svc.SendPrivateMessage(ctx, alice, "alice", "alice", "me")
	var invalid *domain.InvalidInputError
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.SendPrivateMessage(ctx, alice, "alice", "carol", "hi")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	assert.Empty(t, notifier.direct)
}

func TestMergePrivate_DropsDuplicates(t *testing.T) {
	merged := mergePrivate([]domain.FriendMessage{{ID: 3}, {ID: 1}, {ID: 3}, {ID: 2}})
	ids := make([]int64, 0, len(merged))
	for _, m := range merged {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestFriends(t *testing.T) {
	svc, _ := setupService(t)
	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	registerUser(t, svc, "carol")
	ctx := context.Background()

	require.NoError(t, svc.AddFriend(ctx, alice, "carol"))
	require.NoError(t, svc.AddFriend(ctx, alice, "bob"))
	require.NoError(t, svc.AddFriend(ctx, alice, "bob"))

	names, err := svc.Friends(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, names)

	names, err = svc.Friends(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, names)

	var invalid *domain.InvalidInputError
	assert.ErrorAs(t, svc.AddFriend(ctx, alice, "alice"), &invalid)
}

func TestJoinVoice(t *testing.T) {
	svc, notifier := setupService(t)
	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	ctx := context.Background()

	voice, err := svc.CreateRoom(ctx, alice, "Voice", domain.RoomTypeVoice)
	require.NoError(t, err)
	text, err := svc.CreateRoom(ctx, alice, "Text", domain.RoomTypeText)
	require.NoError(t, err)

	_, err = svc.JoinVoice(ctx, alice, voice.ID)
	require.NoError(t, err)
	state, err := svc.JoinVoice(ctx, bob, voice.ID)
	require.NoError(t, err)
	assert.Equal(t, *voice, state.Room)
	assert.Equal(t, []int64{alice.UserID(), bob.UserID()}, state.Users)

	require.Len(t, notifier.broadcast, 2)
	assert.Equal(t, live.VoiceJoin{RoomID: voice.ID, UserID: bob.UserID(), Username: "bob"}, notifier.broadcast[1])

	_, err = svc.JoinVoice(ctx, alice, text.ID)
	var invalid *domain.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "password456")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	got, err := svc.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrLoginFailed)

	_, err = svc.Authenticate(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, domain.ErrLoginFailed)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	var invalid *domain.InvalidInputError

	_, err := svc.Register(ctx, "", "password123")
	assert.ErrorAs(t, err, &invalid)
	_, err = svc.Register(ctx, "al ice", "password123")
	assert.ErrorAs(t, err, &invalid)
	_, err = svc.Register(ctx, "alice", "short")
	assert.ErrorAs(t, err, &invalid)
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	hash, err := h.Hash("password123")
	require.NoError(t, err)

	ok, err := h.Compare(hash, "password123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(hash, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindUsername(t *testing.T) {
	svc, _ := setupService(t)
	alice := registerUser(t, svc, "alice")

	name, err := svc.FindUsername(context.Background(), alice, alice.UserID())
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestAttachImage(t *testing.T) {
	svc, _ := setupService(t)
	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	ctx := context.Background()
	room, err := svc.CreateRoom(ctx, alice, "Lobby", domain.RoomTypeText)
	require.NoError(t, err)
	msgID, err := svc.SendMessage(ctx, alice, SendMessageRequest{Text: "look", RoomID: room.ID})
	require.NoError(t, err)

	upload := ImageUpload{MessageID: msgID, Filename: "cat.png", ContentType: "image/png", StoragePath: "images/x.png"}
	_, err = svc.AttachImage(ctx, bob, upload)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	img, err := svc.AttachImage(ctx, alice, upload)
	require.NoError(t, err)
	assert.NotEqual(t, "", img.ID.String())
	assert.Equal(t, alice.UserID(), img.UserID)

	msgs, err := svc.MessagesByRoom(ctx, alice, room.ID)
	require.NoError(t, err)
	require.Len(t, msgs[0].Images, 1)
	assert.Equal(t, img.ID, msgs[0].Images[0].ID)
}

func TestEnsureDefaultRooms(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultRooms(ctx, []string{"General Chat", "Random"}))
	require.NoError(t, svc.EnsureDefaultRooms(ctx, []string{"Ignored"}))

	rooms, err := svc.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "General Chat", rooms[0].Title)
	assert.Equal(t, "Random", rooms[1].Title)
}
