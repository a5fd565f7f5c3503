package gateway

import (
	"sync"

	"github.com/google/uuid"

	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

const sessionBuffer = 64

// Session is one subscriber stream. Keyed by a unique id so two streams may
// share a subscriber id without clobbering each other's queue.
type Session struct {
	Key          string
	SubscriberID string
	ch           chan domain.Event
}

// Events is the stream's inbound queue. It is closed when the session is
// unregistered, which unblocks any pending read immediately.
func (s *Session) Events() <-chan domain.Event {
	return s.ch
}

// Registry is the single shared session mapping. One mutex guards it; both
// registration changes and event delivery run under that lock, so a session
// can never receive a send after its channel was closed.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	log      logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

func (r *Registry) Register(subscriberID string) *Session {
	session := &Session{
		Key:          uuid.NewString(),
		SubscriberID: subscriberID,
		ch:           make(chan domain.Event, sessionBuffer),
	}

	r.mu.Lock()
	r.sessions[session.Key] = session
	r.mu.Unlock()

	r.log.Info("Session registered", "subscriber_id", subscriberID, "session", session.Key)
	return session
}

// Unregister removes the session and closes its queue. Safe to call more than
// once; every stream exit path runs through here.
func (r *Registry) Unregister(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.Key]; !ok {
		return
	}
	delete(r.sessions, session.Key)
	close(session.ch)
	r.log.Info("Session unregistered", "subscriber_id", session.SubscriberID, "session", session.Key)
}

// Deliver fans an event out to every registered session, except that
// payment-link-issued goes only to sessions whose subscriber id matches the
// event subject. A full session queue drops the event rather than blocking
// delivery to everyone else.
func (r *Registry) Deliver(event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, session := range r.sessions {
		if event.Topic == domain.TopicPaymentLinkIssued && session.SubscriberID != event.SubjectID {
			continue
		}
		select {
		case session.ch <- event:
		default:
			r.log.Warn("Session queue full, dropping event",
				"subscriber_id", session.SubscriberID, "topic", event.Topic)
		}
	}
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
