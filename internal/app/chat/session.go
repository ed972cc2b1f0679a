package chat

import (
	"time"
	"unicode/utf8"

	"parlor/internal/app/user"
	"parlor/internal/pkg/errs"
)

// MaxRoomNameRunes bounds the name of a public room a client may join.
const MaxRoomNameRunes = 64

// Session is the per-connection state of the action dispatch machine. A
// connection holds exactly one live room-or-DM membership at a time;
// switching rooms first leaves the old one. All fields are mutated only
// under the owning Service lock.
type Session struct {
	conn     Conn
	identity string
	username string
	guest    bool

	roomID string
	inDM   bool

	// closed marks the terminal state: set on disconnect or when the
	// session is superseded by a newer connection for the same user.
	closed bool
}

// Room returns the id of the session's current room.
func (sess *Session) Room() string {
	return sess.roomID
}

// InDM reports whether the current room is a DM room.
func (sess *Session) InDM() bool {
	return sess.inDM
}

// Connect registers an authenticated connection with the engine: any older
// connection for the same user is superseded and kicked, presence is
// updated, the default public room is joined, the profile snapshot is
// pushed to the new connection, and the online-user list is broadcast
// globally.
func (s *Service) Connect(conn Conn, profile user.Profile) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.presence.Lookup(profile.Username); ok {
		s.logger.Warn().
			Str("username", profile.Username).
			Msg("User already connected, superseding old session")

		s.detachLocked(s.sessions[prev.Conn])
		prev.Conn.Kick("Signed in from another connection.")
	}

	online, _ := s.presence.Register(profile, conn)

	sess := &Session{
		conn:     conn,
		identity: profile.Identity,
		username: profile.Username,
		guest:    profile.Guest,
	}
	s.sessions[conn] = sess
	s.all[conn] = struct{}{}

	s.joinPublicLocked(sess, DefaultRoom)
	s.broadcastUsersOnlineLocked()
	s.sendTo(conn, newProfileEvent(online.View()))

	s.logger.Info().
		Str("username", profile.Username).
		Bool("guest", profile.Guest).
		Int("online", s.presence.Len()).
		Msg("User connected")

	return sess
}

// OnAction interprets one inbound client frame. Invalid input results in a
// blocked event to the offending connection only; the connection stays open
// unless the action itself closes it.
func (s *Service) OnAction(sess *Session, raw []byte) {
	action, err := decodeAction(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.closed {
		return
	}

	if err != nil {
		s.logger.Warn().Err(err).Str("username", sess.username).Msg("Client sent malformed frame")
		s.sendTo(sess.conn, newBlockedEvent(errs.NewError(errs.ErrActionInvalid)))
		return
	}

	switch action.Action {
	case ActionSendMessage:
		s.handleSendMessageLocked(sess, action.Content)
	case ActionJoinRoom:
		s.handleJoinRoomLocked(sess, action.Room)
	case ActionCreateDMRoom:
		s.handleCreateDMLocked(sess, action.Receiver)
	case ActionJoinDMRoom:
		s.handleJoinDMLocked(sess, action.Room)
	case ActionTyping:
		s.handleTypingLocked(sess, action.Typing)
	case ActionUpdateProfile:
		s.handleUpdateProfileLocked(sess, action.Profile)
	case ActionLogout:
		s.handleLogoutLocked(sess)
	default:
		s.logger.Warn().
			Str("username", sess.username).
			Str("action", action.Action).
			Msg("Client sent unsupported action")
		s.sendTo(sess.conn, newBlockedEvent(errs.NewError(errs.ErrActionInvalid)))
	}
}

// OnDisconnect removes the connection from every registry it participates
// in and notifies remaining peers. Safe to call more than once.
func (s *Service) OnDisconnect(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detachLocked(sess)
}

// detachLocked is the single cleanup path shared by disconnects and
// session supersession: stop-typing to the current room, presence removal
// with a global online-list broadcast, and room removal with a member-list
// broadcast to the vacated room.
func (s *Service) detachLocked(sess *Session) {
	if sess == nil || sess.closed {
		return
	}
	sess.closed = true
	delete(s.sessions, sess.conn)
	delete(s.all, sess.conn)

	room := s.currentLocked(sess)

	if u, ok := s.presence.Lookup(sess.username); ok && u.Conn == sess.conn && room != nil {
		s.fanout(room.conns, newTypingEvent(false, u.View()))
	}

	if s.presence.Unregister(sess.username, sess.conn) {
		s.broadcastUsersOnlineLocked()
	}

	if room != nil {
		room.Remove(sess.conn, sess.username)
		s.fanout(room.conns, newRoomUsersEvent(room.MemberViews()))
	}

	s.logger.Info().
		Str("username", sess.username).
		Str("room", sess.roomID).
		Int("online", s.presence.Len()).
		Msg("User disconnected")
}

// currentLocked resolves the session's current room, public or DM, to its
// shared membership structure. Returns nil when the room no longer exists.
func (s *Service) currentLocked(sess *Session) *Room {
	if sess.roomID == "" {
		return nil
	}
	if sess.inDM {
		if dm, ok := s.dmRooms[sess.roomID]; ok {
			return &dm.Room
		}
		return nil
	}
	return s.rooms[sess.roomID]
}

// leaveCurrentLocked removes the session from its current room: stop-typing
// first, then the lock-step conns/members removal, then a member-list
// broadcast to whoever remains. Empty public rooms are kept (durable);
// empty DM rooms linger until the idle sweeper collects them.
func (s *Service) leaveCurrentLocked(sess *Session) {
	room := s.currentLocked(sess)
	if room == nil {
		return
	}

	if u, ok := s.presence.Lookup(sess.username); ok && u.Conn == sess.conn {
		s.fanout(room.conns, newTypingEvent(false, u.View()))
	}

	room.Remove(sess.conn, sess.username)
	s.fanout(room.conns, newRoomUsersEvent(room.MemberViews()))
}

// joinPublicLocked adds the session to a public room (creating it if
// unseen) and broadcasts, in fixed order, the join acknowledgment, the
// member list, and the message history to every member including the new
// one.
func (s *Service) joinPublicLocked(sess *Session, roomID string) {
	u, ok := s.presence.Lookup(sess.username)
	if !ok || u.Conn != sess.conn {
		return
	}

	room := s.ensureRoomLocked(roomID)
	room.Add(u)
	sess.roomID = roomID
	sess.inDM = false

	s.fanout(room.conns, newJoinRoomEvent(roomID))
	s.fanout(room.conns, newRoomUsersEvent(room.MemberViews()))
	s.fanout(room.conns, newMessageHistoryEvent(room.history.Snapshot()))
}

// joinDMLocked mirrors joinPublicLocked for an already-authorized DM room.
func (s *Service) joinDMLocked(sess *Session, dm *DMRoom) {
	u, ok := s.presence.Lookup(sess.username)
	if !ok || u.Conn != sess.conn {
		return
	}

	dm.Add(u)
	sess.roomID = dm.ID
	sess.inDM = true

	s.fanout(dm.conns, newJoinRoomEvent(dm.ID))
	s.fanout(dm.conns, newRoomUsersEvent(dm.MemberViews()))
	s.fanout(dm.conns, newMessageHistoryEvent(dm.history.Snapshot()))
}

func (s *Service) handleSendMessageLocked(sess *Session, content string) {
	if content == "" {
		s.sendTo(sess.conn, newBlockedEvent(errs.NewError(errs.ErrMessageEmpty)))
		return
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		s.sendTo(sess.conn, newBlockedEvent(errs.NewError(errs.ErrMessageTooLong)))
		return
	}

	u, ok := s.presence.Lookup(sess.username)
	if !ok || u.Conn != sess.conn {
		return
	}

	if sess.inDM {
		s.postDMLocked(sess, u, content)
		return
	}
	s.postPublicLocked(sess, u, content)
}

// postPublicLocked appends a sanitized message to the room history,
// schedules the durable write off the critical path, and fans the message
// out to all current room members. Fanout is synchronous with append, so
// within one room all members observe messages in the same relative order.
func (s *Service) postPublicLocked(sess *Session, u *OnlineUser, content string) {
	room := s.rooms[sess.roomID]
	if room == nil {
		return
	}

	clean := s.sanitize(content)
	msg := NewMessage(clean, u.Profile)
	room.history.Push(msg)

	go s.persistMessage(StoredMessage{
		ID:         newMessageID(),
		Room:       room.ID,
		AuthorID:   sess.identity,
		AuthorName: sess.username,
		Content:    clean,
		Guest:      sess.guest,
		Date:       msg.Date,
	})

	s.fanout(room.conns, msg)
}

// postDMLocked appends a message to the DM history and fans it out. DM
// content is not moderated and not persisted; DM rooms are ephemeral. Each
// participant additionally gets a dmTab notification on their current live
// connection so the client surfaces the conversation.
func (s *Service) postDMLocked(sess *Session, u *OnlineUser, content string) {
	dm := s.dmRooms[sess.roomID]
	if dm == nil {
		return
	}

	msg := NewMessage(content, u.Profile)
	dm.history.Push(msg)

	dm.RefreshParticipants(s.presence)
	s.fanout(dm.conns, msg)
	s.sendDMTabsLocked(dm)
}

// sendDMTabsLocked notifies both participants on whatever connection they
// hold right now, resolved through the presence directory at send time.
func (s *Service) sendDMTabsLocked(dm *DMRoom) {
	if live, ok := s.presence.Lookup(dm.Sender.Profile.Username); ok {
		s.sendTo(live.Conn, newDMTabEvent(dm.Receiver.View(), dm.ID))
	}
	if live, ok := s.presence.Lookup(dm.Receiver.Profile.Username); ok {
		s.sendTo(live.Conn, newDMTabEvent(dm.Sender.View(), dm.ID))
	}
}

func (s *Service) handleJoinRoomLocked(sess *Session, roomID string) {
	if roomID == "" || utf8.RuneCountInString(roomID) > MaxRoomNameRunes {
		s.sendTo(sess.conn, newBlockedEvent(errs.NewError(errs.ErrRoomNameInvalid)))
		return
	}

	s.leaveCurrentLocked(sess)
	s.joinPublicLocked(sess, roomID)
}

func (s *Service) handleCreateDMLocked(sess *Session, receiver string) {
	if receiver == sess.username {
		s.sendTo(sess.conn, newBlockedEvent(errs.NewError(errs.ErrDMSelf)))
		return
	}

	id, ok := s.resolveOrCreateDMLocked(sess, receiver)
	if !ok {
		// receiver is offline; DMs can only be initiated with a
		// presently-connected peer
		return
	}
	if sess.inDM && sess.roomID == id {
		return
	}

	dm := s.dmRooms[id]
	s.leaveCurrentLocked(sess)
	s.joinDMLocked(sess, dm)
}

// resolveOrCreateDMLocked returns the canonical DM room id for the session
// user and the receiver, creating the room when it does not exist yet. The
// id is a pure function of the unordered name pair, so repeated attempts
// from either side reuse one room.
func (s *Service) resolveOrCreateDMLocked(sess *Session, receiver string) (string, bool) {
	id := DMRoomID(sess.username, receiver)
	if _, ok := s.dmRooms[id]; ok {
		return id, true
	}

	other, ok := s.presence.Lookup(receiver)
	if !ok {
		return "", false
	}
	me, ok := s.presence.Lookup(sess.username)
	if !ok || me.Conn != sess.conn {
		return "", false
	}

	s.dmRooms[id] = newDMRoom(id, me, other, time.Now().UTC())
	s.logger.Info().
		Str("room", id).
		Str("sender", sess.username).
		Str("receiver", receiver).
		Msg("DM room created")

	return id, true
}

func (s *Service) handleJoinDMLocked(sess *Session, roomID string) {
	dm, ok := s.dmRooms[roomID]
	if !ok {
		s.sendTo(sess.conn, newBlockedEvent(errs.NewError(errs.ErrDMRoomNotFound)))
		return
	}
	if !dm.Allows(sess.username) {
		s.logger.Warn().
			Str("username", sess.username).
			Str("room", roomID).
			Msg("DM join rejected for non-participant")
		s.sendTo(sess.conn, newBlockedEvent(errs.NewError(errs.ErrDMAccessDenied)))
		return
	}
	if sess.inDM && sess.roomID == roomID {
		return
	}

	s.leaveCurrentLocked(sess)
	s.joinDMLocked(sess, dm)
}

func (s *Service) handleTypingLocked(sess *Session, typing bool) {
	u, ok := s.presence.Lookup(sess.username)
	if !ok || u.Conn != sess.conn {
		return
	}

	room := s.currentLocked(sess)
	if room == nil {
		return
	}

	s.fanout(room.conns, newTypingEvent(typing, u.View()))
}

func (s *Service) handleUpdateProfileLocked(sess *Session, patch *ProfilePatch) {
	if patch == nil {
		s.sendTo(sess.conn, newBlockedEvent(errs.NewError(errs.ErrProfileInvalid)))
		return
	}
	if patch.Avatar != nil && (*patch.Avatar < user.MinAvatar || *patch.Avatar > user.MaxAvatar) {
		s.sendTo(sess.conn, newBlockedEvent(errs.NewError(errs.ErrAvatarInvalid)))
		return
	}
	if patch.Bio != nil && utf8.RuneCountInString(*patch.Bio) > user.MaxBioRunes {
		s.sendTo(sess.conn, newBlockedEvent(errs.NewError(errs.ErrBioInvalid)))
		return
	}

	u, ok := s.presence.Lookup(sess.username)
	if !ok || u.Conn != sess.conn {
		return
	}

	if patch.Avatar != nil {
		u.Profile.Avatar = *patch.Avatar
	}
	if patch.Bio != nil {
		u.Profile.Bio = *patch.Bio
	}

	// guest identities die with the session; only registered profiles
	// are written through to the profile store
	if !sess.guest {
		go s.persistProfile(sess.identity, u.Profile.Avatar, u.Profile.Bio)
	}

	s.sendTo(sess.conn, newProfileEvent(u.View()))
	s.broadcastUsersOnlineLocked()

	if room := s.currentLocked(sess); room != nil {
		s.fanout(room.conns, newRoomUsersEvent(room.MemberViews()))
	}
}

// handleLogoutLocked confirms the logout and closes the connection. The
// registry cleanup runs through OnDisconnect when the read pump exits; the
// client discards its session token on receipt of the loggedOut event.
func (s *Service) handleLogoutLocked(sess *Session) {
	s.sendTo(sess.conn, newLoggedOutEvent())
	sess.conn.Close()
}
