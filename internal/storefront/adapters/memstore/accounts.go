package memstore

import (
	"context"
	"strings"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *domain.User) error {
	return r.s.with(func(st *state) error {
		for _, other := range st.users {
			if other.Username == u.Username || strings.EqualFold(other.Email, u.Email) {
				return domain.ErrConflict
			}
		}
		u.ID = st.nextID()
		st.users[u.ID] = *u
		return nil
	})
}

func (r userRepo) Get(_ context.Context, id uint) (*domain.User, error) {
	var out *domain.User
	err := r.s.with(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.NotFound("user", id)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r userRepo) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	var out *domain.User
	err := r.s.with(func(st *state) error {
		for _, u := range st.users {
			if u.Username == login || strings.EqualFold(u.Email, login) {
				out = &u
				return nil
			}
		}
		return domain.NotFound("user", login)
	})
	return out, err
}

func (r userRepo) Exists(_ context.Context, username, email string) (bool, error) {
	found := false
	err := r.s.with(func(st *state) error {
		for _, u := range st.users {
			if u.Username == username || strings.EqualFold(u.Email, email) {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

type supportRepo struct{ s *Store }

func (r supportRepo) CreateSession(_ context.Context, cs *domain.ChatSession) error {
	return r.s.with(func(st *state) error {
		cs.ID = st.nextID()
		st.sessions[cs.ID] = *cs
		return nil
	})
}

func (r supportRepo) GetSession(_ context.Context, token string) (*domain.ChatSession, error) {
	var out *domain.ChatSession
	err := r.s.with(func(st *state) error {
		for _, cs := range st.sessions {
			if cs.Token == token {
				out = &cs
				return nil
			}
		}
		return domain.NotFound("chat session", token)
	})
	return out, err
}

func (r supportRepo) UpdateSession(_ context.Context, cs *domain.ChatSession) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.sessions[cs.ID]; !ok {
			return domain.NotFound("chat session", cs.ID)
		}
		st.sessions[cs.ID] = *cs
		return nil
	})
}

func (r supportRepo) AddChatMessage(_ context.Context, m *domain.ChatMessage) error {
	return r.s.with(func(st *state) error {
		m.ID = st.nextID()
		st.chatMessages = append(st.chatMessages, *m)
		return nil
	})
}

// ListChatMessages is oldest first, the order of the conversation.
func (r supportRepo) ListChatMessages(_ context.Context, sessionID uint) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := r.s.with(func(st *state) error {
		for _, m := range st.chatMessages {
			if m.SessionID == sessionID {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

func (r supportRepo) CreateTicket(_ context.Context, t *domain.SupportTicket) error {
	return r.s.with(func(st *state) error {
		t.ID = st.nextID()
		stored := *t
		stored.Messages = nil
		st.tickets[t.ID] = stored
		return nil
	})
}

func (r supportRepo) withMessages(st *state, t domain.SupportTicket) *domain.SupportTicket {
	t.Messages = nil
	for _, m := range st.ticketMessages {
		if m.TicketID == t.ID {
			t.Messages = append(t.Messages, m)
		}
	}
	return &t
}

func (r supportRepo) GetTicket(_ context.Context, id uint) (*domain.SupportTicket, error) {
	var out *domain.SupportTicket
	err := r.s.with(func(st *state) error {
		t, ok := st.tickets[id]
		if !ok {
			return domain.NotFound("ticket", id)
		}
		out = r.withMessages(st, t)
		return nil
	})
	return out, err
}

func (r supportRepo) UpdateTicket(_ context.Context, t *domain.SupportTicket) error {
	return r.s.with(func(st *state) error {
		cur, ok := st.tickets[t.ID]
		if !ok {
			return domain.NotFound("ticket", t.ID)
		}
		cur.Status = t.Status
		cur.Priority = t.Priority
		cur.Subject = t.Subject
		cur.UpdatedAt = t.UpdatedAt
		st.tickets[t.ID] = cur
		return nil
	})
}

func (r supportRepo) ListTickets(_ context.Context, userID uint) ([]domain.SupportTicket, error) {
	var out []domain.SupportTicket
	err := r.s.with(func(st *state) error {
		for _, t := range st.tickets {
			if userID == 0 || t.UserID == userID {
				out = append(out, *r.withMessages(st, t))
			}
		}
		return nil
	})
	newestFirst(out, func(t domain.SupportTicket) (int64, uint) { return t.UpdatedAt.UnixNano(), t.ID })
	return out, err
}

func (r supportRepo) AddTicketMessage(_ context.Context, m *domain.TicketMessage) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.tickets[m.TicketID]; !ok {
			return domain.NotFound("ticket", m.TicketID)
		}
		m.ID = st.nextID()
		st.ticketMessages = append(st.ticketMessages, *m)
		return nil
	})
}

type templateRepo struct{ s *Store }

// Active returns the most recently created active template of type t.
func (r templateRepo) Active(_ context.Context, t domain.TemplateType) (*domain.InvoiceTemplate, error) {
	var out *domain.InvoiceTemplate
	err := r.s.with(func(st *state) error {
		var candidates []domain.InvoiceTemplate
		for _, tpl := range st.templates {
			if tpl.Active && tpl.Type == t {
				candidates = append(candidates, tpl)
			}
		}
		if len(candidates) == 0 {
			return domain.NotFound("invoice template", t)
		}
		newestFirst(candidates, func(x domain.InvoiceTemplate) (int64, uint) { return x.CreatedAt.UnixNano(), x.ID })
		out = &candidates[0]
		return nil
	})
	return out, err
}

func (r templateRepo) Get(_ context.Context, id uint) (*domain.InvoiceTemplate, error) {
	var out *domain.InvoiceTemplate
	err := r.s.with(func(st *state) error {
		tpl, ok := st.templates[id]
		if !ok {
			return domain.NotFound("invoice template", id)
		}
		out = &tpl
		return nil
	})
	return out, err
}

func (r templateRepo) List(_ context.Context) ([]domain.InvoiceTemplate, error) {
	var out []domain.InvoiceTemplate
	err := r.s.with(func(st *state) error {
		for _, tpl := range st.templates {
			out = append(out, tpl)
		}
		return nil
	})
	newestFirst(out, func(x domain.InvoiceTemplate) (int64, uint) { return x.CreatedAt.UnixNano(), x.ID })
	return out, err
}

func (r templateRepo) Save(_ context.Context, tpl *domain.InvoiceTemplate) error {
	return r.s.with(func(st *state) error {
		if tpl.ID == 0 {
			tpl.ID = st.nextID()
		}
		st.templates[tpl.ID] = *tpl
		return nil
	})
}
