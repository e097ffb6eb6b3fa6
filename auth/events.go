package auth

// Event names a session-state change.
type Event string

const (
	EventSignedUp  Event = "SIGNED_UP"
	EventSignedIn  Event = "SIGNED_IN"
	EventSignedOut Event = "SIGNED_OUT"
)

// Listener is notified after every session-state change.
type Listener func(event Event, session *Session)

type subscription struct {
	id int
	fn Listener
}

// OnAuthStateChange registers fn and returns a function that removes it.
// Listeners run synchronously, in the order they subscribed.
func (s *Service) OnAuthStateChange(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Service) emit(event Event, session *Session) {
	s.mu.RLock()
	subs := make([]subscription, len(s.listeners))
	copy(subs, s.listeners)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(event, session)
	}
}
