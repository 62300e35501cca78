package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Email     string `json:"email" validate:"required,email,max=120"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=64"`
	LastName  string `json:"last_name" validate:"max=64"`
	Phone     string `json:"phone_number" validate:"max=20"`
}

type LoginInput struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
	Merge     domain.MergeReport
}

var errBadCredentials = domain.NewValidationError("invalid username or password", "login")

type AccountService struct {
	store  Store
	tokens TokenIssuer
	carts  *CartService
	cost   int
	now    func() time.Time
}

func NewAccountService(store Store, tokens TokenIssuer, carts *CartService) *AccountService {
	return &AccountService{store: store, tokens: tokens, carts: carts, cost: bcrypt.DefaultCost, now: time.Now}
}

// Register creates a customer account.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in, "invalid registration"); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PhoneNumber:  in.Phone,
		Role:         domain.RoleCustomer,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.WithinTx(ctx, func(tx Store) error {
		taken, err := tx.Users().Exists(ctx, in.Username, in.Email)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: username or e-mail already registered", domain.ErrConflict)
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials, issues a token and merges the anonymous
// cart named by guestToken into the user's cart.
func (s *AccountService) Login(ctx context.Context, in LoginInput, guestToken string) (*LoginResult, error) {
	if err := validateInput(in, "login and password are required"); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByLogin(ctx, strings.TrimSpace(in.Login))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, errBadCredentials
	}
	if !user.Active {
		return nil, domain.ErrPermissionDenied
	}

	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	res := &LoginResult{User: user, Token: token, ExpiresAt: exp}

	if guestToken != "" && s.carts != nil && domain.NewPrincipal(user.ID, user.Role).Has(domain.CapShop) {
		report, err := s.carts.MergeGuest(ctx, user.ID, guestToken)
		if err != nil {
			slog.WarnContext(ctx, "guest cart merge failed", "user_id", user.ID, "error", err)
		}
		res.Merge = report
	}
	slog.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	return res, nil
}
