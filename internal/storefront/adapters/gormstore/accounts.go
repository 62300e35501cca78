package gormstore

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type userRepo struct{ db *gorm.DB }

func (r userRepo) Create(ctx context.Context, u *domain.User) error {
	rec := userFromDomain(u)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err, "user", u.Username)
	}
	u.ID = rec.ID
	return nil
}

func (r userRepo) Get(ctx context.Context, id uint) (*domain.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, translate(err, "user", id)
	}
	return rec.toDomain(), nil
}

func (r userRepo) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).
		Where("username = ? OR LOWER(email) = ?", login, strings.ToLower(login)).
		First(&rec).Error
	if err != nil {
		return nil, translate(err, "user", login)
	}
	return rec.toDomain(), nil
}

func (r userRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userRecord{}).
		Where("username = ? OR LOWER(email) = ?", username, strings.ToLower(email)).
		Count(&n).Error
	if err != nil {
		return false, translate(err, "user", username)
	}
	return n > 0, nil
}

type supportRepo struct{ db *gorm.DB }

func (r supportRepo) CreateSession(ctx context.Context, s *domain.ChatSession) error {
	rec := chatSessionFromDomain(s)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err, "chat session", s.Token)
	}
	s.ID = rec.ID
	return nil
}

func (r supportRepo) GetSession(ctx context.Context, token string) (*domain.ChatSession, error) {
	var rec chatSessionRecord
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&rec).Error; err != nil {
		return nil, translate(err, "chat session", token)
	}
	return rec.toDomain(), nil
}

func (r supportRepo) UpdateSession(ctx context.Context, s *domain.ChatSession) error {
	rec := chatSessionFromDomain(s)
	return translate(r.db.WithContext(ctx).Save(&rec).Error, "chat session", s.ID)
}

func (r supportRepo) AddChatMessage(ctx context.Context, m *domain.ChatMessage) error {
	rec := chatMessageRecord{
		SessionID: m.SessionID,
		UserID:    m.UserID,
		Message:   m.Message,
		Staff:     m.Staff,
		System:    m.System,
		CreatedAt: m.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err, "chat message", m.SessionID)
	}
	m.ID = rec.ID
	return nil
}

func (r supportRepo) ListChatMessages(ctx context.Context, sessionID uint) ([]domain.ChatMessage, error) {
	var recs []chatMessageRecord
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at, id").Find(&recs).Error; err != nil {
		return nil, translate(err, "chat messages", sessionID)
	}
	out := make([]domain.ChatMessage, len(recs))
	for i, rec := range recs {
		out[i] = domain.ChatMessage{
			ID:        rec.ID,
			SessionID: rec.SessionID,
			UserID:    rec.UserID,
			Message:   rec.Message,
			Staff:     rec.Staff,
			System:    rec.System,
			CreatedAt: rec.CreatedAt,
		}
	}
	return out, nil
}

func (r supportRepo) CreateTicket(ctx context.Context, t *domain.SupportTicket) error {
	rec := ticketRecord{
		UserID:    t.UserID,
		Subject:   t.Subject,
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Omit("Messages").Create(&rec).Error; err != nil {
		return translate(err, "ticket", t.Subject)
	}
	t.ID = rec.ID
	return nil
}

func (r supportRepo) withMessages(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") })
}

func (r supportRepo) GetTicket(ctx context.Context, id uint) (*domain.SupportTicket, error) {
	var rec ticketRecord
	if err := r.withMessages(ctx).First(&rec, id).Error; err != nil {
		return nil, translate(err, "ticket", id)
	}
	t := rec.toDomain()
	return &t, nil
}

func (r supportRepo) UpdateTicket(ctx context.Context, t *domain.SupportTicket) error {
	res := r.db.WithContext(ctx).Model(&ticketRecord{}).Where("id = ?", t.ID).Updates(map[string]any{
		"subject":    t.Subject,
		"status":     string(t.Status),
		"priority":   string(t.Priority),
		"updated_at": t.UpdatedAt,
	})
	if res.Error != nil {
		return translate(res.Error, "ticket", t.ID)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("ticket", t.ID)
	}
	return nil
}

func (r supportRepo) ListTickets(ctx context.Context, userID uint) ([]domain.SupportTicket, error) {
	q := r.withMessages(ctx)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var recs []ticketRecord
	if err := q.Order("updated_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, translate(err, "tickets", userID)
	}
	out := make([]domain.SupportTicket, len(recs))
	for i, rec := range recs {
		out[i] = rec.toDomain()
	}
	return out, nil
}

func (r supportRepo) AddTicketMessage(ctx context.Context, m *domain.TicketMessage) error {
	rec := ticketMessageRecord{
		TicketID:   m.TicketID,
		UserID:     m.UserID,
		Message:    m.Message,
		StaffReply: m.StaffReply,
		CreatedAt:  m.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err, "ticket message", m.TicketID)
	}
	m.ID = rec.ID
	return nil
}

type templateRepo struct{ db *gorm.DB }

func (r templateRepo) Active(ctx context.Context, t domain.TemplateType) (*domain.InvoiceTemplate, error) {
	var rec invoiceTemplateRecord
	err := r.db.WithContext(ctx).
		Where("type = ? AND active = ?", string(t), true).
		Order("created_at DESC, id DESC").
		First(&rec).Error
	if err != nil {
		return nil, translate(err, "invoice template", t)
	}
	return rec.toDomain(), nil
}

func (r templateRepo) Get(ctx context.Context, id uint) (*domain.InvoiceTemplate, error) {
	var rec invoiceTemplateRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, translate(err, "invoice template", id)
	}
	return rec.toDomain(), nil
}

func (r templateRepo) List(ctx context.Context) ([]domain.InvoiceTemplate, error) {
	var recs []invoiceTemplateRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, translate(err, "invoice templates", "list")
	}
	out := make([]domain.InvoiceTemplate, len(recs))
	for i, rec := range recs {
		out[i] = *rec.toDomain()
	}
	return out, nil
}

func (r templateRepo) Save(ctx context.Context, t *domain.InvoiceTemplate) error {
	rec := invoiceTemplateFromDomain(t)
	if err := r.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return translate(err, "invoice template", t.Name)
	}
	t.ID = rec.ID
	return nil
}
