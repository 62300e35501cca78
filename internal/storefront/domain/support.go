package domain

import (
	"regexp"
	"strings"
	"time"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

type SupportTicket struct {
	ID        uint
	UserID    uint
	Subject   string
	Status    TicketStatus
	Priority  TicketPriority
	Messages  []TicketMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApplyReply updates the ticket status after a reply. Staff may set an
// explicit status; otherwise a staff reply to an open ticket moves it to
// in progress. Customer replies never change the status.
func (t *SupportTicket) ApplyReply(staff bool, requested TicketStatus) error {
	if !staff {
		return nil
	}
	if requested != "" {
		if !requested.Valid() {
			return NewValidationError("invalid ticket status", "status")
		}
		t.Status = requested
		return nil
	}
	if t.Status == TicketOpen {
		t.Status = TicketInProgress
	}
	return nil
}

type TicketMessage struct {
	ID         uint
	TicketID   uint
	UserID     uint
	Message    string
	StaffReply bool
	CreatedAt  time.Time
}

// ChatSession may be anonymous (UserID 0). A session opens at most one
// support ticket.
type ChatSession struct {
	ID        uint
	UserID    uint
	Token     string
	Active    bool
	TicketID  uint
	CreatedAt time.Time
	EndedAt   *time.Time
}

type ChatMessage struct {
	ID        uint
	SessionID uint
	UserID    uint
	Message   string
	Staff     bool
	System    bool
	CreatedAt time.Time
}

const ChatWelcome = "Hello! Welcome to Mo Solar Technologies support. How can I help you today?"

type autoReply struct {
	words *regexp.Regexp
	reply string
}

var autoReplies = []autoReply{
	{
		words: regexp.MustCompile(`\b(price|prices|cost|costs|how much)\b`),
		reply: "Our solar panels start from KSh 15,000. You can view all our products and prices at our Products page. Would you like me to connect you with a sales representative for a detailed quote?",
	},
	{
		words: regexp.MustCompile(`\b(installation|install|setup)\b`),
		reply: "We provide professional installation services for all our solar products. Our certified technicians will handle the complete setup. Installation typically takes 1-2 days depending on system size. Would you like to schedule a site assessment?",
	},
	{
		words: regexp.MustCompile(`\b(warranty|guarantee)\b`),
		reply: "All our solar panels come with a 25-year manufacturer warranty and 5-year installation warranty. We also provide ongoing maintenance support. Need specific warranty details for a product?",
	},
	{
		words: regexp.MustCompile(`\b(delivery|shipping)\b`),
		reply: "All deliveries are sourced from our headquarters at CBD, Sheikh Karume Road, Young Business Center, Ground Floor, Shop 13. We offer free delivery within Nairobi and Kiambu. Delivery to other counties available with charges. Standard delivery takes 2-3 business days. Would you like to check delivery options for your area?",
	},
	{
		words: regexp.MustCompile(`\b(mpesa|m-pesa|payment|pay)\b`),
		reply: "We accept M-Pesa and credit card payments. You can pay during checkout or contact us for payment plans on larger systems. Need help with payment options?",
	},
	{
		words: regexp.MustCompile(`\b(hello|hi|hey)\b`),
		reply: "Hello! I'm here to help you with any questions about our solar products and services. What would you like to know?",
	},
	{
		words: regexp.MustCompile(`\b(thank|thanks)\b`),
		reply: "You're welcome! Is there anything else I can help you with regarding our solar solutions?",
	},
}

// AutoReply returns the canned answer for common questions. The first
// matching topic wins; ok is false when the message needs a human.
func AutoReply(message string) (reply string, ok bool) {
	m := strings.ToLower(message)
	for _, a := range autoReplies {
		if a.words.MatchString(m) {
			return a.reply, true
		}
	}
	return "", false
}

// TicketSubject derives a ticket subject from the first chat message.
func TicketSubject(message string) string {
	const max = 50
	r := []rune(strings.TrimSpace(message))
	if len(r) > max {
		return "Live Chat: " + string(r[:max]) + "..."
	}
	return "Live Chat: " + string(r)
}
