package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/ioproxxy/mosolarweb/internal/pkg/events"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type DeliveryCommentInput struct {
	Comment string                `json:"comment" validate:"required"`
	Status  domain.DeliveryStatus `json:"delivery_status" validate:"required,oneof=delivered attempted rescheduled issue"`
	Rating  *int                  `json:"rating" validate:"omitempty,min=1,max=5"`
}

type InstallationCommentInput struct {
	Comment              string                    `json:"comment" validate:"required"`
	Status               domain.InstallationStatus `json:"installation_status" validate:"required,oneof=scheduled in_progress completed on_hold cancelled"`
	TechnicalNotes       string                    `json:"technical_notes"`
	CompletionPercentage *int                      `json:"completion_percentage" validate:"omitempty,min=0,max=100"`
	EstimatedCompletion  *time.Time                `json:"estimated_completion_date"`
}

type DeliveryCommentResult struct {
	Comment *domain.DeliveryComment
	Effect  domain.StatusEffect
}

type InstallationCommentResult struct {
	Comment *domain.InstallationComment
	Effect  domain.StatusEffect
}

// CommentService appends driver and installer log entries. A comment is
// always stored; its status side effect is applied only when the order
// state machine allows it.
type CommentService struct {
	store  Store
	events events.Publisher
	now    func() time.Time
}

func NewCommentService(store Store, publisher events.Publisher) *CommentService {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	return &CommentService{store: store, events: publisher, now: time.Now}
}

func (s *CommentService) AddDeliveryComment(ctx context.Context, p domain.Principal, orderID uint, in DeliveryCommentInput) (*DeliveryCommentResult, error) {
	if err := p.Require(domain.CapDeliver); err != nil {
		return nil, err
	}
	if err := validateInput(in, "invalid delivery comment"); err != nil {
		return nil, err
	}

	var (
		res   DeliveryCommentResult
		order *domain.Order
	)
	err := s.store.WithinTx(ctx, func(tx Store) error {
		var err error
		order, err = tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		driver, err := tx.Users().Get(ctx, p.UserID)
		if err != nil {
			return err
		}

		c := &domain.DeliveryComment{
			OrderID:        orderID,
			DriverID:       p.UserID,
			DriverName:     driver.DisplayName(),
			Comment:        in.Comment,
			DeliveryStatus: in.Status,
			Rating:         in.Rating,
			CreatedAt:      s.now().UTC(),
		}
		if err := tx.Comments().AddDelivery(ctx, c); err != nil {
			return err
		}
		res.Comment = c

		res.Effect = domain.ApplyDeliveryEffect(order, in.Status)
		if res.Effect.StatusChanged {
			return tx.Orders().UpdateStatus(ctx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.report(ctx, orderID, "delivery", res.Effect)
	if res.Effect.StatusChanged {
		publishOrderEvent(ctx, s.events, events.OrderDelivered, order, map[string]any{"driver_id": p.UserID})
	}
	return &res, nil
}

func (s *CommentService) AddInstallationComment(ctx context.Context, p domain.Principal, orderID uint, in InstallationCommentInput) (*InstallationCommentResult, error) {
	if err := p.Require(domain.CapInstall); err != nil {
		return nil, err
	}
	if err := validateInput(in, "invalid installation comment"); err != nil {
		return nil, err
	}
	pct := 0
	if in.CompletionPercentage != nil {
		pct = *in.CompletionPercentage
	}

	var (
		res   InstallationCommentResult
		order *domain.Order
	)
	err := s.store.WithinTx(ctx, func(tx Store) error {
		var err error
		order, err = tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		installer, err := tx.Users().Get(ctx, p.UserID)
		if err != nil {
			return err
		}

		c := &domain.InstallationComment{
			OrderID:                 orderID,
			InstallerID:             p.UserID,
			InstallerName:           installer.DisplayName(),
			Comment:                 in.Comment,
			InstallationStatus:      in.Status,
			TechnicalNotes:          in.TechnicalNotes,
			CompletionPercentage:    pct,
			EstimatedCompletionDate: in.EstimatedCompletion,
			CreatedAt:               s.now().UTC(),
		}
		if err := tx.Comments().AddInstallation(ctx, c); err != nil {
			return err
		}
		res.Comment = c

		res.Effect = domain.ApplyInstallationEffect(order, in.Status)
		if res.Effect.StatusChanged {
			return tx.Orders().UpdateStatus(ctx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.report(ctx, orderID, "installation", res.Effect)
	if res.Effect.StatusChanged {
		publishOrderEvent(ctx, s.events, events.OrderShipped, order, map[string]any{"installer_id": p.UserID})
	}
	return &res, nil
}

func (s *CommentService) report(ctx context.Context, orderID uint, kind string, eff domain.StatusEffect) {
	switch {
	case eff.StatusChanged:
		slog.InfoContext(ctx, "order status changed by comment", "order_id", orderID, "comment", kind, "from", eff.From, "to", eff.To)
	case eff.Attempted && eff.Reason != "":
		slog.WarnContext(ctx, "comment stored, status left unchanged", "order_id", orderID, "comment", kind, "status", eff.From, "reason", eff.Reason)
	}
}

func (s *CommentService) ListDelivery(ctx context.Context, p domain.Principal, orderID uint) ([]domain.DeliveryComment, error) {
	if err := p.Require(domain.CapViewDeliveryLog); err != nil {
		return nil, err
	}
	if _, err := s.store.Orders().Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.store.Comments().ListDelivery(ctx, orderID)
}

func (s *CommentService) ListInstallation(ctx context.Context, p domain.Principal, orderID uint) ([]domain.InstallationComment, error) {
	if err := p.Require(domain.CapViewInstallationLog); err != nil {
		return nil, err
	}
	if _, err := s.store.Orders().Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.store.Comments().ListInstallation(ctx, orderID)
}
