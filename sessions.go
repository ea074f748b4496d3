package main

import (
	"github.com/apibillme/cache"
	"github.com/google/uuid"
	"net/http"
	"sync"
	"time"
)

const sessionCookie = "dogimages_session"

type Sessions struct {
	mu      sync.Mutex
	forms   cache.Cache
	ttl     time.Duration
	newForm func() *Form
}

func NewSessions(ttl time.Duration, capacity int, newForm func() *Form) *Sessions {
	return &Sessions{
		forms:   cache.New(capacity, cache.WithTTL(ttl)),
		ttl:     ttl,
		newForm: newForm,
	}
}

// Form returns the caller's form, creating one when the request carries no
// live session. The cookie is refreshed on every call.
func (s *Sessions) Form(w http.ResponseWriter, r *http.Request) *Form {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ""
	var form *Form
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			if v, ok := s.forms.Get(c.Value); ok {
				id, form = c.Value, v.(*Form)
			}
		}
	}
	if form == nil {
		id, form = uuid.NewString(), s.newForm()
	}

	s.forms.Set(id, form)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return form
}
