package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parlor/internal/app/user"
)

// fakeConn records every frame enqueued to it so tests can assert on the
// exact event stream a client would observe.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	kicked bool
	closed bool
}

func (c *fakeConn) Enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, data)
	return true
}

func (c *fakeConn) Kick(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kicked = true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// eventsOfType decodes the recorded frames and returns those carrying the
// given type tag, as generic maps.
func (c *fakeConn) eventsOfType(t *testing.T, eventType string) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []map[string]any
	for _, frame := range c.frames {
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(frame, &decoded))
		if decoded["type"] == eventType {
			out = append(out, decoded)
		}
	}
	return out
}

func (c *fakeConn) lastEventOfType(t *testing.T, eventType string) map[string]any {
	t.Helper()
	events := c.eventsOfType(t, eventType)
	require.NotEmpty(t, events, "expected at least one %q event", eventType)
	return events[len(events)-1]
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// fakeMessageStore records inserts and serves canned history. Inserts are
// signaled on a channel because the engine persists off the critical path.
type fakeMessageStore struct {
	mu       sync.Mutex
	inserted []StoredMessage
	notify   chan StoredMessage
	history  map[string][]Message
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{
		notify:  make(chan StoredMessage, 16),
		history: make(map[string][]Message),
	}
}

func (f *fakeMessageStore) InsertMessage(ctx context.Context, msg StoredMessage) error {
	f.mu.Lock()
	f.inserted = append(f.inserted, msg)
	f.mu.Unlock()
	f.notify <- msg
	return nil
}

func (f *fakeMessageStore) RecentMessages(ctx context.Context, room string, limit int) ([]Message, error) {
	return f.history[room], nil
}

func (f *fakeMessageStore) waitForInsert(t *testing.T) StoredMessage {
	t.Helper()
	select {
	case msg := <-f.notify:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message persistence")
		return StoredMessage{}
	}
}

type fakeProfileStore struct {
	mu      sync.Mutex
	updates map[string]user.View
	notify  chan string
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		updates: make(map[string]user.View),
		notify:  make(chan string, 16),
	}
}

func (f *fakeProfileStore) UpdateProfile(ctx context.Context, identity string, avatar int, bio string) error {
	f.mu.Lock()
	f.updates[identity] = user.View{Avatar: avatar, Bio: bio}
	f.mu.Unlock()
	f.notify <- identity
	return nil
}

// upperSanitizer makes moderation observable without a dictionary.
type upperSanitizer struct{}

func (upperSanitizer) Sanitize(text string) string { return strings.ToUpper(text) }

func newTestService() (*Service, *fakeMessageStore, *fakeProfileStore) {
	messages := newFakeMessageStore()
	profiles := newFakeProfileStore()
	return NewService(messages, profiles, nil), messages, profiles
}

func profileFor(name string) user.Profile {
	return user.Profile{
		Identity: "id-" + name,
		Username: name,
		Avatar:   1,
	}
}

func TestConnect_JoinsDefaultRoomWithEmptyHistory(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	conn := &fakeConn{}

	// When alice connects
	sess := svc.Connect(conn, profileFor("alice"))

	// Then she lands in the default public room
	req.Equal(DefaultRoom, sess.Room())
	req.False(sess.InDM())

	join := conn.lastEventOfType(t, EventJoinRoom)
	req.Equal(DefaultRoom, join["room"])

	members := conn.lastEventOfType(t, EventRoomUsers)["roomUsers"].([]any)
	req.Len(members, 1)

	// And the history payload is present but empty
	history := conn.lastEventOfType(t, EventMessageHistory)
	req.Empty(history["messageHistory"])

	// And she received her own profile and the online list
	profile := conn.lastEventOfType(t, EventProfile)["profile"].(map[string]any)
	req.Equal("alice", profile["username"])
	online := conn.lastEventOfType(t, EventUsersOnline)["usersOnline"].([]any)
	req.Len(online, 1)
}

func TestConnect_SeededHistoryIsDelivered(t *testing.T) {
	req := require.New(t)
	messages := newFakeMessageStore()
	messages.history[DefaultRoom] = []Message{
		msgAt("newest", time.Now().UTC()),
		msgAt("older", time.Now().UTC().Add(-time.Minute)),
	}
	svc := NewService(messages, newFakeProfileStore(), nil)
	svc.BootstrapRooms(context.Background())

	conn := &fakeConn{}
	svc.Connect(conn, profileFor("alice"))

	history := conn.lastEventOfType(t, EventMessageHistory)["messageHistory"].([]any)
	req.Len(history, 2)
	req.Equal("newest", history[0].(map[string]any)["content"])
}

func TestSendMessage_BroadcastToAllRoomMembers(t *testing.T) {
	req := require.New(t)
	svc, messages, _ := newTestService()
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	svc.Connect(aliceConn, profileFor("alice"))
	bobSess := svc.Connect(bobConn, profileFor("bob"))

	// When bob sends a message to the shared room
	svc.OnAction(bobSess, []byte(`{"action":"sendMessage","content":"hi"}`))

	// Then both members receive it
	for _, conn := range []*fakeConn{aliceConn, bobConn} {
		msg := conn.lastEventOfType(t, EventMessage)
		req.Equal("hi", msg["content"])
		req.Equal("bob", msg["user"].(map[string]any)["username"])
	}

	// And it was handed to the message store with the author identity
	stored := messages.waitForInsert(t)
	req.Equal("hi", stored.Content)
	req.Equal("id-bob", stored.AuthorID)
	req.Equal(DefaultRoom, stored.Room)
	req.NotEmpty(stored.ID)
}

func TestSendMessage_ContentIsSanitized(t *testing.T) {
	req := require.New(t)
	messages := newFakeMessageStore()
	svc := NewService(messages, newFakeProfileStore(), upperSanitizer{})
	conn := &fakeConn{}
	sess := svc.Connect(conn, profileFor("alice"))

	svc.OnAction(sess, []byte(`{"action":"sendMessage","content":"hello"}`))

	req.Equal("HELLO", conn.lastEventOfType(t, EventMessage)["content"])
	req.Equal("HELLO", messages.waitForInsert(t).Content)
}

func TestSendMessage_EmptyAndOversizedBlocked(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	conn := &fakeConn{}
	sess := svc.Connect(conn, profileFor("alice"))

	svc.OnAction(sess, []byte(`{"action":"sendMessage","content":""}`))
	req.NotEmpty(conn.eventsOfType(t, EventBlocked))

	conn.reset()
	oversized := strings.Repeat("x", MaxContentRunes+1)
	svc.OnAction(sess, []byte(fmt.Sprintf(`{"action":"sendMessage","content":"%s"}`, oversized)))
	req.NotEmpty(conn.eventsOfType(t, EventBlocked))

	// And nothing was broadcast either time
	req.Empty(conn.eventsOfType(t, EventMessage))
	room := svc.rooms[DefaultRoom]
	req.Zero(room.history.Len())
}

func TestConnect_SupersedesExistingSession(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	oldConn, newConn := &fakeConn{}, &fakeConn{}

	oldSess := svc.Connect(oldConn, profileFor("alice"))

	// When alice connects again from a second socket
	svc.Connect(newConn, profileFor("alice"))

	// Then the old connection is kicked and only one presence entry remains
	req.True(oldConn.kicked)
	req.Equal(1, svc.OnlineCount())

	u, ok := svc.presence.Lookup("alice")
	req.True(ok)
	req.Same(Conn(newConn), u.Conn)

	// And a late disconnect of the kicked socket does not evict her
	svc.OnDisconnect(oldSess)
	req.Equal(1, svc.OnlineCount())
	req.True(svc.rooms[DefaultRoom].Has(newConn))

	members := svc.rooms[DefaultRoom].MemberViews()
	req.Len(members, 1)
	req.Equal("alice", members[0].Username)
}

func TestDisconnect_LeavesRoomAndPresenceTogether(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	aliceSess := svc.Connect(aliceConn, profileFor("alice"))
	svc.Connect(bobConn, profileFor("bob"))
	bobConn.reset()

	svc.OnDisconnect(aliceSess)

	// Then alice is gone from both the room and the presence directory
	req.Equal(1, svc.OnlineCount())
	req.False(svc.rooms[DefaultRoom].Has(aliceConn))
	req.Len(svc.rooms[DefaultRoom].MemberViews(), 1)

	// And bob saw both updated lists
	online := bobConn.lastEventOfType(t, EventUsersOnline)["usersOnline"].([]any)
	req.Len(online, 1)
	members := bobConn.lastEventOfType(t, EventRoomUsers)["roomUsers"].([]any)
	req.Len(members, 1)

	// Disconnect is idempotent
	svc.OnDisconnect(aliceSess)
	req.Equal(1, svc.OnlineCount())
}

func TestJoinRoom_SwitchesMembershipAtomically(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	conn := &fakeConn{}
	sess := svc.Connect(conn, profileFor("alice"))

	svc.OnAction(sess, []byte(`{"action":"joinRoom","room":"Gaming"}`))

	req.Equal("Gaming", sess.Room())
	req.False(svc.rooms[DefaultRoom].Has(conn))
	req.Empty(svc.rooms[DefaultRoom].MemberViews())
	req.True(svc.rooms["Gaming"].Has(conn))

	join := conn.lastEventOfType(t, EventJoinRoom)
	req.Equal("Gaming", join["room"])
}

func TestJoinRoom_InvalidNameBlocked(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	conn := &fakeConn{}
	sess := svc.Connect(conn, profileFor("alice"))

	svc.OnAction(sess, []byte(`{"action":"joinRoom","room":""}`))

	req.NotEmpty(conn.eventsOfType(t, EventBlocked))
	req.Equal(DefaultRoom, sess.Room())
}

func TestDMRoomID_IsOrderIndependent(t *testing.T) {
	req := require.New(t)
	req.Equal("alice & bob", DMRoomID("alice", "bob"))
	req.Equal("alice & bob", DMRoomID("bob", "alice"))
	req.Equal(DMRoomID("carol", "dave"), DMRoomID("dave", "carol"))
}

func TestCreateDM_WithSelfBlocked(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	conn := &fakeConn{}
	sess := svc.Connect(conn, profileFor("alice"))

	svc.OnAction(sess, []byte(`{"action":"createDMRoom","receiver":"alice"}`))

	blocked := conn.lastEventOfType(t, EventBlocked)
	req.Equal("You can't DM yourself.", blocked["message"])
	req.Empty(svc.dmRooms)
	req.Equal(DefaultRoom, sess.Room())
}

func TestCreateDM_OfflineReceiverIsSilentNoOp(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	conn := &fakeConn{}
	sess := svc.Connect(conn, profileFor("alice"))
	conn.reset()

	svc.OnAction(sess, []byte(`{"action":"createDMRoom","receiver":"ghost"}`))

	req.Empty(svc.dmRooms)
	req.Empty(conn.eventsOfType(t, EventBlocked))
	req.Equal(DefaultRoom, sess.Room())
}

func TestCreateDM_CreatesRoomAndMovesSender(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	aliceSess := svc.Connect(aliceConn, profileFor("alice"))
	svc.Connect(bobConn, profileFor("bob"))

	svc.OnAction(aliceSess, []byte(`{"action":"createDMRoom","receiver":"bob"}`))

	req.Len(svc.dmRooms, 1)
	dm := svc.dmRooms["alice & bob"]
	req.NotNil(dm)

	req.True(aliceSess.InDM())
	req.Equal("alice & bob", aliceSess.Room())
	req.False(svc.rooms[DefaultRoom].Has(aliceConn))

	// Repeating the action from the same session is a no-op
	svc.OnAction(aliceSess, []byte(`{"action":"createDMRoom","receiver":"bob"}`))
	req.Len(svc.dmRooms, 1)

	// And bob initiating resolves to the same room
	req.Equal("alice & bob", DMRoomID("bob", "alice"))
}

func TestDM_MessageReachesBothAndSendsTabs(t *testing.T) {
	req := require.New(t)
	svc, messages, _ := newTestService()
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	aliceSess := svc.Connect(aliceConn, profileFor("alice"))
	bobSess := svc.Connect(bobConn, profileFor("bob"))

	svc.OnAction(aliceSess, []byte(`{"action":"createDMRoom","receiver":"bob"}`))
	svc.OnAction(bobSess, []byte(`{"action":"joinDMRoom","room":"alice & bob"}`))
	aliceConn.reset()
	bobConn.reset()

	svc.OnAction(aliceSess, []byte(`{"action":"sendMessage","content":"psst"}`))

	req.Equal("psst", aliceConn.lastEventOfType(t, EventMessage)["content"])
	req.Equal("psst", bobConn.lastEventOfType(t, EventMessage)["content"])

	// Each side's dmTab names the other participant
	aliceTab := aliceConn.lastEventOfType(t, EventDMTab)
	req.Equal("bob", aliceTab["sender"].(map[string]any)["username"])
	bobTab := bobConn.lastEventOfType(t, EventDMTab)
	req.Equal("alice", bobTab["sender"].(map[string]any)["username"])

	// DM content is never persisted
	select {
	case msg := <-messages.notify:
		t.Fatalf("DM message was persisted: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestJoinDM_NonParticipantRejected(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	aliceConn, bobConn, carolConn := &fakeConn{}, &fakeConn{}, &fakeConn{}
	aliceSess := svc.Connect(aliceConn, profileFor("alice"))
	svc.Connect(bobConn, profileFor("bob"))
	carolSess := svc.Connect(carolConn, profileFor("carol"))

	svc.OnAction(aliceSess, []byte(`{"action":"createDMRoom","receiver":"bob"}`))
	dm := svc.dmRooms["alice & bob"]
	connsBefore := dm.ConnCount()

	svc.OnAction(carolSess, []byte(`{"action":"joinDMRoom","room":"alice & bob"}`))

	blocked := carolConn.lastEventOfType(t, EventBlocked)
	req.Equal("Access denied.", blocked["message"])
	req.Equal(connsBefore, dm.ConnCount())
	req.False(dm.Has(carolConn))
	req.Equal(DefaultRoom, carolSess.Room())
}

func TestJoinDM_UnknownRoomBlocked(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	conn := &fakeConn{}
	sess := svc.Connect(conn, profileFor("alice"))

	svc.OnAction(sess, []byte(`{"action":"joinDMRoom","room":"nobody & nothing"}`))

	blocked := conn.lastEventOfType(t, EventBlocked)
	req.Equal("Room does not exist.", blocked["message"])
	req.Equal(DefaultRoom, sess.Room())
}

func TestTyping_FansOutToCurrentRoomOnly(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	aliceConn, bobConn, carolConn := &fakeConn{}, &fakeConn{}, &fakeConn{}
	aliceSess := svc.Connect(aliceConn, profileFor("alice"))
	svc.Connect(bobConn, profileFor("bob"))
	carolSess := svc.Connect(carolConn, profileFor("carol"))
	svc.OnAction(carolSess, []byte(`{"action":"joinRoom","room":"Music"}`))
	carolConn.reset()

	svc.OnAction(aliceSess, []byte(`{"action":"typing","typing":true}`))

	typing := bobConn.lastEventOfType(t, EventTyping)
	req.Equal(true, typing["typing"])
	req.Equal("alice", typing["user"].(map[string]any)["username"])
	req.Empty(carolConn.eventsOfType(t, EventTyping))
}

func TestUpdateProfile_ValidationRejectsBadInput(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	conn := &fakeConn{}
	sess := svc.Connect(conn, profileFor("alice"))

	// Avatar outside the allowed range
	svc.OnAction(sess, []byte(`{"action":"updateProfile","profile":{"avatar":99}}`))
	req.Equal("Avatar not valid.", conn.lastEventOfType(t, EventBlocked)["message"])

	// Oversized bio
	bio := strings.Repeat("b", user.MaxBioRunes+1)
	svc.OnAction(sess, []byte(fmt.Sprintf(`{"action":"updateProfile","profile":{"bio":"%s"}}`, bio)))
	req.Equal("Bio not valid.", conn.lastEventOfType(t, EventBlocked)["message"])

	// Missing body
	svc.OnAction(sess, []byte(`{"action":"updateProfile"}`))
	req.NotEmpty(conn.eventsOfType(t, EventBlocked))

	// And the stored profile never changed
	u, _ := svc.presence.Lookup("alice")
	req.Equal(1, u.Profile.Avatar)
	req.Empty(u.Profile.Bio)
}

func TestUpdateProfile_AppliesAndBroadcasts(t *testing.T) {
	req := require.New(t)
	svc, _, profiles := newTestService()
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	aliceSess := svc.Connect(aliceConn, profileFor("alice"))
	svc.Connect(bobConn, profileFor("bob"))
	bobConn.reset()

	svc.OnAction(aliceSess, []byte(`{"action":"updateProfile","profile":{"avatar":5,"bio":"hey"}}`))

	// The caller gets the refreshed profile
	profile := aliceConn.lastEventOfType(t, EventProfile)["profile"].(map[string]any)
	req.Equal(float64(5), profile["avatar"])
	req.Equal("hey", profile["bio"])

	// Everyone sees the refreshed online list and room members
	online := bobConn.lastEventOfType(t, EventUsersOnline)["usersOnline"].([]any)
	req.Equal(float64(5), online[0].(map[string]any)["avatar"])
	req.NotEmpty(bobConn.eventsOfType(t, EventRoomUsers))

	// And the registered profile was written through
	select {
	case identity := <-profiles.notify:
		req.Equal("id-alice", identity)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for profile persistence")
	}
}

func TestUpdateProfile_GuestChangesStayInMemory(t *testing.T) {
	req := require.New(t)
	svc, _, profiles := newTestService()
	conn := &fakeConn{}

	guest := user.Profile{Identity: "guest_AAAAAAAA", Username: "Guest_123", Guest: true}
	sess := svc.Connect(conn, guest)

	svc.OnAction(sess, []byte(`{"action":"updateProfile","profile":{"avatar":3}}`))

	u, _ := svc.presence.Lookup("Guest_123")
	req.Equal(3, u.Profile.Avatar)

	select {
	case identity := <-profiles.notify:
		t.Fatalf("guest profile was persisted: %s", identity)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLogout_ConfirmsThenCloses(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	conn := &fakeConn{}
	sess := svc.Connect(conn, profileFor("alice"))

	svc.OnAction(sess, []byte(`{"action":"logout"}`))

	req.NotEmpty(conn.eventsOfType(t, EventLoggedOut))
	req.True(conn.closed)
}

func TestOnAction_MalformedAndUnknownFramesBlocked(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	conn := &fakeConn{}
	sess := svc.Connect(conn, profileFor("alice"))
	conn.reset()

	svc.OnAction(sess, []byte(`{not json`))
	req.Len(conn.eventsOfType(t, EventBlocked), 1)

	svc.OnAction(sess, []byte(`{"action":"teleport"}`))
	req.Len(conn.eventsOfType(t, EventBlocked), 2)

	// A closed session is ignored entirely
	svc.OnDisconnect(sess)
	conn.reset()
	svc.OnAction(sess, []byte(`{"action":"sendMessage","content":"late"}`))
	req.Empty(conn.frames)
}

func TestSweep_EvictsOnlyIdleEmptyDMRooms(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	aliceSess := svc.Connect(aliceConn, profileFor("alice"))
	bobSess := svc.Connect(bobConn, profileFor("bob"))

	svc.OnAction(aliceSess, []byte(`{"action":"createDMRoom","receiver":"bob"}`))
	svc.OnAction(bobSess, []byte(`{"action":"joinDMRoom","room":"alice & bob"}`))
	svc.OnAction(aliceSess, []byte(`{"action":"sendMessage","content":"hello"}`))

	dm := svc.dmRooms["alice & bob"]
	sent := dm.IdleSince()

	// While a connection remains attached the room is never swept,
	// regardless of message age
	deleted := svc.SweepIdleDMRooms(sent.Add(time.Hour), 15*time.Minute)
	req.Zero(deleted)
	req.Contains(svc.dmRooms, "alice & bob")

	// Once both participants are gone, a room idle past the timeout goes
	svc.OnDisconnect(aliceSess)
	svc.OnDisconnect(bobSess)

	deleted = svc.SweepIdleDMRooms(sent.Add(10*time.Minute), 15*time.Minute)
	req.Zero(deleted, "recent activity must protect the room")

	deleted = svc.SweepIdleDMRooms(sent.Add(20*time.Minute), 15*time.Minute)
	req.Equal(1, deleted)
	req.Empty(svc.dmRooms)
}

func TestSweep_MessagelessRoomFallsBackToCreationTime(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()

	created := time.Now().UTC().Add(-time.Hour)
	me := &OnlineUser{Profile: profileFor("alice"), Conn: &fakeConn{}}
	other := &OnlineUser{Profile: profileFor("bob"), Conn: &fakeConn{}}
	svc.dmRooms["alice & bob"] = newDMRoom("alice & bob", me, other, created)

	deleted := svc.SweepIdleDMRooms(created.Add(20*time.Minute), 15*time.Minute)
	req.Equal(1, deleted)
	req.Empty(svc.dmRooms)
}

func TestSweep_NeverTouchesPublicRooms(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	svc.BootstrapRooms(context.Background())

	deleted := svc.SweepIdleDMRooms(time.Now().Add(24*time.Hour), time.Minute)
	req.Zero(deleted)
	req.Len(svc.rooms, len(SeedRooms))
}

func TestDM_ReconnectedParticipantReceivesTraffic(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestService()
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	aliceSess := svc.Connect(aliceConn, profileFor("alice"))
	svc.Connect(bobConn, profileFor("bob"))

	svc.OnAction(aliceSess, []byte(`{"action":"createDMRoom","receiver":"bob"}`))

	// bob reconnects on a new socket
	bobConn2 := &fakeConn{}
	svc.Connect(bobConn2, profileFor("bob"))
	bobConn2.reset()

	svc.OnAction(aliceSess, []byte(`{"action":"sendMessage","content":"still there?"}`))

	// The dmTab lands on bob's new connection
	tab := bobConn2.lastEventOfType(t, EventDMTab)
	req.Equal("alice", tab["sender"].(map[string]any)["username"])
	req.Equal("alice & bob", tab["room"])
}
