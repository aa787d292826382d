// Package memory implements every domain repository in process memory. It backs
// tests and STORE_DRIVER=memory development runs; data is lost on exit.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/crimpz/clic/internal/domain"
	"github.com/jonboulle/clockwork"
)

type privateMessage struct {
	domain.FriendMessage
	senderID   int64
	receiverID int64
}

type participant struct {
	userID int64
	order  int64
}

// Store holds all tables behind one mutex.
type Store struct {
	mu    sync.RWMutex
	clock clockwork.Clock

	nextRoomID    int64
	nextMessageID int64
	nextPrivateID int64
	nextUserID    int64
	nextJoin      int64

	rooms        map[int64]domain.Room
	messages     map[int64]domain.Message
	images       map[int64][]domain.Image
	private      []privateMessage
	users        map[int64]domain.User
	friends      map[int64]map[int64]struct{}
	participants map[int64][]participant
}

func NewStore(clock clockwork.Clock) *Store {
	return &Store{
		clock:        clock,
		rooms:        make(map[int64]domain.Room),
		messages:     make(map[int64]domain.Message),
		images:       make(map[int64][]domain.Image),
		users:        make(map[int64]domain.User),
		friends:      make(map[int64]map[int64]struct{}),
		participants: make(map[int64][]participant),
	}
}

func (s *Store) Rooms() *RoomRepo       { return &RoomRepo{s} }
func (s *Store) Messages() *MessageRepo { return &MessageRepo{s} }
func (s *Store) Images() *ImageRepo     { return &ImageRepo{s} }
func (s *Store) Users() *UserRepo       { return &UserRepo{s} }
func (s *Store) Friends() *FriendRepo   { return &FriendRepo{s} }
func (s *Store) Voice() *VoiceRepo      { return &VoiceRepo{s} }

// Ping satisfies readiness checks.
func (s *Store) Ping(context.Context) error { return nil }

type RoomRepo struct{ s *Store }

func (r *RoomRepo) Create(_ context.Context, room domain.RoomCreate) (*domain.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextRoomID++
	created := domain.Room{ID: r.s.nextRoomID, RoomType: room.RoomType, Title: room.Title}
	r.s.rooms[created.ID] = created
	return &created, nil
}

func (r *RoomRepo) Get(_ context.Context, id int64) (*domain.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return nil, domain.NewNotFound("rooms", id)
	}
	return &room, nil
}

func (r *RoomRepo) List(context.Context) ([]domain.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Room, 0, len(r.s.rooms))
	for _, room := range r.s.rooms {
		out = append(out, room)
	}
	slices.SortFunc(out, func(a, b domain.Room) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *RoomRepo) Update(_ context.Context, id int64, update domain.RoomUpdate) (*domain.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return nil, domain.NewNotFound("rooms", id)
	}
	if update.Title != nil {
		room.Title = *update.Title
	}
	r.s.rooms[id] = room
	return &room, nil
}

func (r *RoomRepo) Delete(_ context.Context, id int64) (*domain.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return nil, domain.NewNotFound("rooms", id)
	}
	delete(r.s.rooms, id)
	delete(r.s.participants, id)
	for msgID, msg := range r.s.messages {
		if msg.RoomID == id {
			delete(r.s.messages, msgID)
			delete(r.s.images, msgID)
		}
	}
	return &room, nil
}

type MessageRepo struct{ s *Store }

func (r *MessageRepo) CreateRoomMessage(_ context.Context, msg domain.NewRoomMessage) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rooms[msg.RoomID]; !ok {
		return 0, domain.NewNotFound("rooms", msg.RoomID)
	}

	r.s.nextMessageID++
	r.s.messages[r.s.nextMessageID] = domain.Message{
		ID:     r.s.nextMessageID,
		Text:   msg.Text,
		RoomID: msg.RoomID,
		UserID: msg.UserID,
		SentAt: r.s.clock.Now(),
	}
	return r.s.nextMessageID, nil
}

func (r *MessageRepo) GetRoomMessage(_ context.Context, id int64) (*domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	msg, ok := r.s.messages[id]
	if !ok {
		return nil, domain.NewNotFound("messages", id)
	}
	msg.Images = r.s.imagesFor(id)
	return &msg, nil
}

func (r *MessageRepo) ListByRoom(ctx context.Context, roomID int64) ([]domain.Message, error) {
	return r.ListRecentByRoom(ctx, roomID, 0)
}

func (r *MessageRepo) ListRecentByRoom(_ context.Context, roomID, afterID int64) ([]domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Message{}
	for _, msg := range r.s.messages {
		if msg.RoomID == roomID && msg.ID > afterID {
			msg.Images = r.s.imagesFor(msg.ID)
			out = append(out, msg)
		}
	}
	slices.SortFunc(out, func(a, b domain.Message) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *MessageRepo) CreatePrivateMessage(_ context.Context, msg domain.NewPrivateMessage) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sender, ok := r.s.users[msg.SenderID]
	if !ok {
		return 0, domain.NewNotFound("users", msg.SenderID)
	}
	receiver, ok := r.s.users[msg.ReceiverID]
	if !ok {
		return 0, domain.NewNotFound("users", msg.ReceiverID)
	}

	r.s.nextPrivateID++
	r.s.private = append(r.s.private, privateMessage{
		FriendMessage: domain.FriendMessage{
			ID:           r.s.nextPrivateID,
			SenderName:   sender.Username,
			ReceiverName: receiver.Username,
			Text:         msg.Text,
			SentAt:       r.s.clock.Now(),
		},
		senderID:   msg.SenderID,
		receiverID: msg.ReceiverID,
	})
	return r.s.nextPrivateID, nil
}

func (r *MessageRepo) ListPrivateBetween(_ context.Context, userA, userB int64) ([]domain.FriendMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.FriendMessage{}
	for _, pm := range r.s.private {
		if (pm.senderID == userA && pm.receiverID == userB) || (pm.senderID == userB && pm.receiverID == userA) {
			out = append(out, pm.FriendMessage)
		}
	}
	return out, nil
}

type ImageRepo struct{ s *Store }

func (r *ImageRepo) Create(_ context.Context, img domain.Image) (*domain.Image, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.messages[img.MessageID]; !ok {
		return nil, domain.NewNotFound("messages", img.MessageID)
	}
	r.s.images[img.MessageID] = append(r.s.images[img.MessageID], img)
	return &img, nil
}

// imagesFor must be called with the lock held.
func (s *Store) imagesFor(messageID int64) []domain.Image {
	return append([]domain.Image{}, s.images[messageID]...)
}

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, username, passwordHash string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return nil, domain.ErrUsernameTaken
		}
	}

	r.s.nextUserID++
	user := domain.User{ID: r.s.nextUserID, Username: username, PasswordHash: passwordHash}
	r.s.users[user.ID] = user
	return &user, nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, domain.NewNotFound("users", id)
	}
	return &user, nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.NewNotFound("users", username)
}

type FriendRepo struct{ s *Store }

func (r *FriendRepo) Add(_ context.Context, userID, friendID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	link := func(a, b int64) {
		if r.s.friends[a] == nil {
			r.s.friends[a] = make(map[int64]struct{})
		}
		r.s.friends[a][b] = struct{}{}
	}
	link(userID, friendID)
	link(friendID, userID)
	return nil
}

func (r *FriendRepo) ListNames(_ context.Context, userID int64) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	names := []string{}
	for id := range r.s.friends[userID] {
		if u, ok := r.s.users[id]; ok {
			names = append(names, u.Username)
		}
	}
	slices.Sort(names)
	return names, nil
}

type VoiceRepo struct{ s *Store }

func (r *VoiceRepo) Join(_ context.Context, roomID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.participants[roomID] {
		if p.userID == userID {
			return nil
		}
	}
	r.s.nextJoin++
	r.s.participants[roomID] = append(r.s.participants[roomID], participant{userID: userID, order: r.s.nextJoin})
	return nil
}

func (r *VoiceRepo) Participants(_ context.Context, roomID int64) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ps := slices.Clone(r.s.participants[roomID])
	slices.SortFunc(ps, func(a, b participant) int { return cmp.Compare(a.order, b.order) })

	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.userID)
	}
	return out, nil
}
