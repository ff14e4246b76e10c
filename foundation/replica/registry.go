package replica

// Registry tracks the live sessions plus a reverse index from advertised
// peer url to session. Both maps are updated together so a close always
// scrubs every reference. Owned by the replica run goroutine, no locking.
type Registry struct {
	sessions map[*Session]struct{}
	byURL    map[string]*Session
}

func newRegistry() *Registry {
	return &Registry{
		sessions: make(map[*Session]struct{}),
		byURL:    make(map[string]*Session),
	}
}

// add registers a new unidentified session.
func (reg *Registry) add(s *Session) {
	reg.sessions[s] = struct{}{}
}

// identifyObserver promotes the session to the observer role.
func (reg *Registry) identifyObserver(s *Session) {
	s.role = RoleObserver
}

// identifyPeer promotes the session to the peer role and indexes it by the
// peer's advertised url.
func (reg *Registry) identifyPeer(s *Session, url string) {
	if s.url != "" && reg.byURL[s.url] == s {
		delete(reg.byURL, s.url)
	}

	s.role = RolePeer
	s.url = url
	reg.byURL[url] = s
}

// remove drops the session from the registry and, for peers, from the url
// index.
func (reg *Registry) remove(s *Session) {
	delete(reg.sessions, s)

	if s.url != "" && reg.byURL[s.url] == s {
		delete(reg.byURL, s.url)
	}
}

// has reports whether the session is still registered.
func (reg *Registry) has(s *Session) bool {
	_, exists := reg.sessions[s]
	return exists
}

// hasPeer reports whether a live peer session exists for the url.
func (reg *Registry) hasPeer(url string) bool {
	_, exists := reg.byURL[url]
	return exists
}

// list returns a snapshot of the registered sessions so broadcasts tolerate
// sessions closing mid-iteration. An empty role set matches every session,
// the except session is always skipped.
func (reg *Registry) list(except *Session, roles ...Role) []*Session {
	sessions := make([]*Session, 0, len(reg.sessions))

	for s := range reg.sessions {
		if s == except {
			continue
		}

		if len(roles) == 0 {
			sessions = append(sessions, s)
			continue
		}

		for _, role := range roles {
			if s.role == role {
				sessions = append(sessions, s)
				break
			}
		}
	}

	return sessions
}

// count returns the number of registered sessions.
func (reg *Registry) count() int {
	return len(reg.sessions)
}
