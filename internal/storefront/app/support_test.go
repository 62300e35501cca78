package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

func TestChatAutoReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	support := app.NewSupportService(f.store)

	session, err := support.StartChat(ctx, domain.Anonymous())
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Zero(t, session.UserID)

	reply, err := support.SendChat(ctx, domain.Anonymous(), session.Token, "<b>How much</b> is a 300W panel?")
	require.NoError(t, err)
	assert.Contains(t, reply.AutoReply, "KSh 15,000")
	assert.Zero(t, reply.TicketID)

	msgs, err := support.ChatMessages(ctx, session.Token)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.ChatWelcome, msgs[0].Message)
	assert.True(t, msgs[0].System)
	assert.Equal(t, "How much is a 300W panel?", msgs[1].Message, "markup is stripped")
	assert.True(t, msgs[2].System)
}

func TestChatOpensOneTicketPerSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	support := app.NewSupportService(f.store)

	session, err := support.StartChat(ctx, f.customer)
	require.NoError(t, err)

	first, err := support.SendChat(ctx, f.customer, session.Token, "My inverter beeps every night at 2am")
	require.NoError(t, err)
	assert.Empty(t, first.AutoReply)
	require.NotZero(t, first.TicketID)

	second, err := support.SendChat(ctx, f.customer, session.Token, "It started last week")
	require.NoError(t, err)
	assert.Equal(t, first.TicketID, second.TicketID)

	tickets, err := support.Tickets(ctx, f.customer)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	ticket := tickets[0]
	assert.Equal(t, "Live Chat: My inverter beeps every night at 2am", ticket.Subject)
	assert.Equal(t, domain.TicketOpen, ticket.Status)
	assert.Equal(t, domain.PriorityMedium, ticket.Priority)
	assert.Equal(t, f.customer.UserID, ticket.UserID)

	testCases := []struct {
		name  string
		token string
		text  string
	}{
		{name: "missing token", text: "hello"},
		{name: "blank message", token: session.Token, text: "  <p></p> "},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := support.SendChat(ctx, f.customer, tc.token, tc.text)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, err = support.SendChat(ctx, f.customer, "no-such-session", "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTicketAccessAndReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	support := app.NewSupportService(f.store)

	session, err := support.StartChat(ctx, f.customer)
	require.NoError(t, err)
	sent, err := support.SendChat(ctx, f.customer, session.Token, "Battery not charging")
	require.NoError(t, err)
	id := sent.TicketID

	_, err = support.Ticket(ctx, f.other, id)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = support.Tickets(ctx, domain.Anonymous())
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	all, err := support.Tickets(ctx, f.helpdesk)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	none, err := support.Tickets(ctx, f.other)
	require.NoError(t, err)
	assert.Empty(t, none)

	ticket, err := support.Reply(ctx, f.customer, id, "Any update?", domain.TicketClosed)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketOpen, ticket.Status, "customers cannot change the status")

	ticket, err = support.Reply(ctx, f.helpdesk, id, "A technician will call you today.", "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketInProgress, ticket.Status)

	ticket, err = support.Reply(ctx, f.helpdesk, id, "Fixed on site.", domain.TicketResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketResolved, ticket.Status)

	_, err = support.Reply(ctx, f.helpdesk, id, "Oops", "archived")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = support.Reply(ctx, f.other, id, "Me too", "")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	stored, err := support.Ticket(ctx, f.customer, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketResolved, stored.Status)
	require.Len(t, stored.Messages, 4)
	assert.False(t, stored.Messages[1].StaffReply)
	assert.True(t, stored.Messages[2].StaffReply)
}
