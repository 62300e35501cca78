package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/k3a/html2text"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type ChatReply struct {
	AutoReply string
	TicketID  uint
}

type SupportService struct {
	store Store
	now   func() time.Time
}

func NewSupportService(store Store) *SupportService {
	return &SupportService{store: store, now: time.Now}
}

// cleanMessage reduces user input to plain text.
func cleanMessage(raw string) string {
	return strings.TrimSpace(html2text.HTML2Text(raw))
}

// StartChat opens a chat session, anonymous or not, with a welcome message.
func (s *SupportService) StartChat(ctx context.Context, p domain.Principal) (*domain.ChatSession, error) {
	now := s.now().UTC()
	session := &domain.ChatSession{
		UserID:    p.UserID,
		Token:     uuid.NewString(),
		Active:    true,
		CreatedAt: now,
	}
	err := s.store.WithinTx(ctx, func(tx Store) error {
		if err := tx.Support().CreateSession(ctx, session); err != nil {
			return err
		}
		return tx.Support().AddChatMessage(ctx, &domain.ChatMessage{
			SessionID: session.ID,
			Message:   domain.ChatWelcome,
			System:    true,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SendChat stores a message and answers it automatically when possible.
// Otherwise the session's support ticket is opened with this message.
func (s *SupportService) SendChat(ctx context.Context, p domain.Principal, token, raw string) (*ChatReply, error) {
	text := cleanMessage(raw)
	if token == "" || text == "" {
		return nil, domain.NewValidationError("missing required fields", "session_token", "message")
	}

	var reply ChatReply
	err := s.store.WithinTx(ctx, func(tx Store) error {
		session, err := tx.Support().GetSession(ctx, token)
		if err != nil {
			return err
		}
		if !session.Active {
			return domain.NotFound("chat session", token)
		}

		now := s.now().UTC()
		if err := tx.Support().AddChatMessage(ctx, &domain.ChatMessage{
			SessionID: session.ID,
			UserID:    p.UserID,
			Message:   text,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		if answer, ok := domain.AutoReply(text); ok {
			reply.AutoReply = answer
			return tx.Support().AddChatMessage(ctx, &domain.ChatMessage{
				SessionID: session.ID,
				Message:   answer,
				System:    true,
				CreatedAt: now,
			})
		}

		if session.TicketID != 0 {
			reply.TicketID = session.TicketID
			return nil
		}
		ticket := &domain.SupportTicket{
			UserID:    p.UserID,
			Subject:   domain.TicketSubject(text),
			Status:    domain.TicketOpen,
			Priority:  domain.PriorityMedium,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Support().CreateTicket(ctx, ticket); err != nil {
			return err
		}
		if err := tx.Support().AddTicketMessage(ctx, &domain.TicketMessage{
			TicketID:  ticket.ID,
			UserID:    p.UserID,
			Message:   text,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		session.TicketID = ticket.ID
		reply.TicketID = ticket.ID
		slog.InfoContext(ctx, "support ticket opened from chat", "ticket_id", ticket.ID, "session_id", session.ID)
		return tx.Support().UpdateSession(ctx, session)
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (s *SupportService) ChatMessages(ctx context.Context, token string) ([]domain.ChatMessage, error) {
	session, err := s.store.Support().GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.store.Support().ListChatMessages(ctx, session.ID)
}

// Tickets lists every ticket for support staff and the caller's own
// tickets otherwise.
func (s *SupportService) Tickets(ctx context.Context, p domain.Principal) ([]domain.SupportTicket, error) {
	if !p.Authenticated() {
		return nil, domain.ErrPermissionDenied
	}
	if p.Has(domain.CapManageSupport) {
		return s.store.Support().ListTickets(ctx, 0)
	}
	return s.store.Support().ListTickets(ctx, p.UserID)
}

func (s *SupportService) Ticket(ctx context.Context, p domain.Principal, id uint) (*domain.SupportTicket, error) {
	t, err := s.store.Support().GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Has(domain.CapManageSupport) && (!p.Authenticated() || t.UserID != p.UserID) {
		return nil, domain.ErrPermissionDenied
	}
	return t, nil
}

// Reply adds a message to a ticket. Staff may also move the ticket to
// status.
func (s *SupportService) Reply(ctx context.Context, p domain.Principal, id uint, raw string, status domain.TicketStatus) (*domain.SupportTicket, error) {
	text := cleanMessage(raw)
	if text == "" {
		return nil, domain.NewValidationError("message is required", "message")
	}
	staff := p.Has(domain.CapManageSupport)

	var ticket *domain.SupportTicket
	err := s.store.WithinTx(ctx, func(tx Store) error {
		var err error
		ticket, err = tx.Support().GetTicket(ctx, id)
		if err != nil {
			return err
		}
		if !staff && (!p.Authenticated() || ticket.UserID != p.UserID) {
			return domain.ErrPermissionDenied
		}
		if err := ticket.ApplyReply(staff, status); err != nil {
			return err
		}

		now := s.now().UTC()
		msg := domain.TicketMessage{
			TicketID:   ticket.ID,
			UserID:     p.UserID,
			Message:    text,
			StaffReply: staff,
			CreatedAt:  now,
		}
		if err := tx.Support().AddTicketMessage(ctx, &msg); err != nil {
			return err
		}
		ticket.Messages = append(ticket.Messages, msg)
		ticket.UpdatedAt = now
		return tx.Support().UpdateTicket(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}
