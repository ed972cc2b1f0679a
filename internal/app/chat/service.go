package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"parlor/internal/pkg/logx"
	"parlor/internal/pkg/randx"
)

// persistTimeout bounds the background durable write of a single message.
const persistTimeout = 10 * time.Second

// Conn is the transport-agnostic handle the engine holds for an active
// connection. The websocket Client implements it; tests substitute fakes.
type Conn interface {
	// Enqueue queues a pre-serialized event for delivery. It must not
	// block; it reports false if the frame was dropped.
	Enqueue(data []byte) bool

	// Kick closes the connection with a close code signaling that the
	// session was superseded by a newer connection.
	Kick(reason string)

	// Close shuts the connection down normally.
	Close()
}

// MessageStore is the persistence collaborator for chat messages. Failures
// are logged and never surfaced to clients.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg StoredMessage) error
	RecentMessages(ctx context.Context, room string, limit int) ([]Message, error)
}

// ProfileStore is the persistence collaborator for registered-user profile
// updates. Guest profiles live only in the presence directory.
type ProfileStore interface {
	UpdateProfile(ctx context.Context, identity string, avatar int, bio string) error
}

// Sanitizer is the content-moderation collaborator applied to public-room
// message content before storage and broadcast.
type Sanitizer interface {
	Sanitize(text string) string
}

// Service owns the shared registries: public rooms, DM rooms, the presence
// directory, and the set of all sockets. Every mutating operation runs as a
// critical section under mu so membership snapshots and fanout lists are
// always consistent. Sessions and the idle sweeper share the same lock.
type Service struct {
	mu sync.Mutex

	presence *Presence
	rooms    map[string]*Room
	dmRooms  map[string]*DMRoom

	// all holds every attached connection, for global usersOnline fanout.
	all map[Conn]struct{}

	sessions map[Conn]*Session

	messages  MessageStore
	profiles  ProfileStore
	sanitizer Sanitizer

	logger zerolog.Logger
}

// NewService constructs the engine around its collaborators.
func NewService(messages MessageStore, profiles ProfileStore, sanitizer Sanitizer) *Service {
	serviceLogger := logx.Logger().With().Str("component", "chat").Logger()

	return &Service{
		presence:  NewPresence(),
		rooms:     make(map[string]*Room),
		dmRooms:   make(map[string]*DMRoom),
		all:       make(map[Conn]struct{}),
		sessions:  make(map[Conn]*Session),
		messages:  messages,
		profiles:  profiles,
		sanitizer: sanitizer,
		logger:    serviceLogger,
	}
}

// BootstrapRooms creates the seed public rooms and loads their recent
// history from persistence, most recent first. A load failure leaves the
// room with empty history; the room itself always exists.
func (s *Service) BootstrapRooms(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range SeedRooms {
		room := s.ensureRoomLocked(name)

		history, err := s.messages.RecentMessages(ctx, name, HistoryCap)
		if err != nil {
			s.logger.Error().Err(err).Str("room", name).Msg("Failed to load room history, starting empty")
			continue
		}

		room.history.Seed(history)
		s.logger.Info().Str("room", name).Int("messages", len(history)).Msg("Room history loaded")
	}
}

// Close force-closes every attached connection. Used during shutdown.
func (s *Service) Close() {
	s.mu.Lock()
	conns := make([]Conn, 0, len(s.all))
	for c := range s.all {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// OnlineCount reports the number of users in the presence directory.
func (s *Service) OnlineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence.Len()
}

// SweepIdleDMRooms deletes every DM room whose last activity is older than
// idleAfter and which has no attached connections. Public rooms are never
// swept. Returns the number of rooms deleted.
func (s *Service) SweepIdleDMRooms(now time.Time, idleAfter time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, dm := range s.dmRooms {
		if dm.ConnCount() > 0 {
			continue
		}
		if now.Sub(dm.IdleSince()) < idleAfter {
			continue
		}

		delete(s.dmRooms, id)
		deleted++
		s.logger.Info().Str("room", id).Msg("Idle DM room evicted")
	}

	return deleted
}

// ensureRoomLocked returns the named public room, creating it when unseen.
func (s *Service) ensureRoomLocked(id string) *Room {
	room, ok := s.rooms[id]
	if !ok {
		room = newRoom(id)
		s.rooms[id] = room
		s.logger.Info().Str("room", id).Msg("Public room created")
	}
	return room
}

// sanitize applies the moderation collaborator, passing content through
// unmodified when none is configured.
func (s *Service) sanitize(content string) string {
	if s.sanitizer == nil {
		return content
	}
	return s.sanitizer.Sanitize(content)
}

// persistMessage durably stores a message off the critical path. The
// in-memory broadcast is never delayed by, nor rolled back on failure of,
// the durable write.
func (s *Service) persistMessage(msg StoredMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.messages.InsertMessage(ctx, msg); err != nil {
		s.logger.Error().Err(err).
			Str("room", msg.Room).
			Str("message_id", msg.ID).
			Msg("Failed to persist message")
	}
}

// persistProfile durably stores a registered user's profile update off the
// critical path.
func (s *Service) persistProfile(identity string, avatar int, bio string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.profiles.UpdateProfile(ctx, identity, avatar, bio); err != nil {
		s.logger.Error().Err(err).
			Str("identity", identity).
			Msg("Failed to persist profile update")
	}
}

// fanout serializes an event once and enqueues it on every connection in
// the set. Called with the Service lock held so the recipient set is a
// consistent snapshot.
func (s *Service) fanout(conns map[Conn]struct{}, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal event for fanout")
		return
	}

	for c := range conns {
		c.Enqueue(data)
	}
}

// sendTo serializes an event and enqueues it on a single connection.
func (s *Service) sendTo(conn Conn, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal event for send")
		return
	}

	conn.Enqueue(data)
}

// broadcastUsersOnlineLocked fans the global online-user list out to every
// attached socket, not just the affected room. Deliberately global: every
// client keeps an online list regardless of its current room.
func (s *Service) broadcastUsersOnlineLocked() {
	s.fanout(s.all, newUsersOnlineEvent(s.presence.Snapshot()))
}

// newMessageID delegates to randx so stored messages carry UUIDs.
func newMessageID() string {
	return randx.MessageID()
}
