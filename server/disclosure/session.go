package disclosure

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session states. A viewer starts Anonymous, may claim professional status
// at most once, and ends Closed. Anonymous -> Closed directly is the common
// case - the viewer reads the public disclosure & leaves.
type State string

const (
	StateAnonymous           State = "anonymous"
	StateClaimedProfessional State = "claimedProfessional"
	StateClosed              State = "closed"
)

// AccessClaim carries everything the audit/notification emitter needs when
// a session reaches elevated access.
type AccessClaim struct {
	UserID        uint
	Username      string
	Viewer        ViewerContext
	AccessType    string
	ResponderInfo string
	Location      string
}

// EventSink consumes the side effects of an elevated-access claim - the
// audit record & the emergency-contact notification. Implementations must
// not block: a failing sink is the sink's problem, never the viewer's.
type EventSink interface {
	EmitAccessClaim(claim AccessClaim)
}

// Session tracks one viewer's pass through an emergency link. Sessions are
// ephemeral - they live in the in-memory registry until closed or expired,
// and re-entry always starts a fresh Anonymous session.
type Session struct {
	Token string

	mu         sync.Mutex
	state      State
	viewer     ViewerContext
	userID     uint
	accessType string
	expiresAt  time.Time
	sink       EventSink
}

func (session *Session) State() State {
	session.mu.Lock()
	defer session.mu.Unlock()

	return session.state
}

// Viewer returns the viewer context for the session's current state, with
// a fresh access timestamp.
func (session *Session) Viewer() ViewerContext {
	session.mu.Lock()
	defer session.mu.Unlock()

	viewer := session.viewer
	viewer.AccessTimestamp = time.Now().UTC()
	return viewer
}

// ClaimProfessional transitions Anonymous -> ClaimedProfessional. The claim
// is a self-assertion - no credential check happens here, on purpose. The
// role upgrade lasts for the remainder of the session, and the access event
// & contact notification are emitted exactly once, at claim time; an
// abandoned session still counts as one claim.
func (session *Session) ClaimProfessional(responderInfo, location string) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	switch session.state {
	case StateClosed:
		return ErrSessionClosed
	case StateClaimedProfessional:
		return ErrAlreadyClaimed
	}

	session.state = StateClaimedProfessional
	session.viewer.Role = RoleMedicalProfessional
	session.viewer.AccessTimestamp = time.Now().UTC()

	session.sink.EmitAccessClaim(AccessClaim{
		UserID:        session.userID,
		Username:      session.viewer.TargetUsername,
		Viewer:        session.viewer,
		AccessType:    session.accessType,
		ResponderInfo: responderInfo,
		Location:      location,
	})

	return nil
}

// Close ends the session. No compensating action is taken for a
// claimed-but-abandoned session.
func (session *Session) Close() {
	session.mu.Lock()
	defer session.mu.Unlock()

	session.state = StateClosed
}

func (session *Session) expired(now time.Time) bool {
	session.mu.Lock()
	defer session.mu.Unlock()

	return now.After(session.expiresAt)
}

// Registry holds the live access sessions, keyed by opaque token. Closing
// the page just abandons the token; the periodic sweep reaps it.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	sink     EventSink
}

func NewRegistry(sink EventSink, ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		sink:     sink,
	}
}

// Open starts a fresh Anonymous session against the target profile.
func (registry *Registry) Open(targetUsername string, userID uint, accessType string) *Session {
	session := &Session{
		Token:      uuid.NewString(),
		state:      StateAnonymous,
		userID:     userID,
		accessType: accessType,
		expiresAt:  time.Now().Add(registry.ttl),
		sink:       registry.sink,
		viewer: ViewerContext{
			Role:            RolePublic,
			TargetUsername:  targetUsername,
			AccessTimestamp: time.Now().UTC(),
		},
	}

	registry.mu.Lock()
	registry.sessions[session.Token] = session
	registry.mu.Unlock()

	return session
}

func (registry *Registry) Find(token string) (*Session, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	session, ok := registry.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if session.State() == StateClosed {
		return nil, ErrSessionClosed
	}

	return session, nil
}

// Close closes & forgets the session for 'token', if any.
func (registry *Registry) Close(token string) {
	registry.mu.Lock()
	session, ok := registry.sessions[token]
	delete(registry.sessions, token)
	registry.mu.Unlock()

	if ok {
		session.Close()
	}
}

// Sweep closes & drops sessions past their ttl, returning how many were
// reaped. Run periodically by the server's cron scheduler.
func (registry *Registry) Sweep() int {
	now := time.Now()
	expired := []*Session{}

	registry.mu.Lock()
	for token, session := range registry.sessions {
		if session.expired(now) {
			expired = append(expired, session)
			delete(registry.sessions, token)
		}
	}
	registry.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}

	return len(expired)
}
