// internal/service/accounts.go
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"logiledger-api-server/internal/auth"
	"logiledger-api-server/internal/location"
	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/store"
)

type AccountConfig struct {
	JWTSecret     string
	JWTExpiration time.Duration
}

// AccountService handles registration, login, token verification and profile edits.
type AccountService struct {
	opts   Options
	tokens *auth.TokenManager
}

func NewAccountService(opts Options, cfg AccountConfig) *AccountService {
	return &AccountService{
		opts:   opts.withDefaults(),
		tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiration),
	}
}

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	UserType    string
	CompanyName string
	Phone       string
	Address     string
	GSTNumber   string
	PANNumber   string
	Location    models.LocationInput
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" || in.UserType == "" {
		return nil, "", validation("Name, email, password, and user type are required")
	}
	role := models.Role(in.UserType)
	if !models.ValidRole(role) {
		return nil, "", validation("User type must be either 'company' or 'msme'")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, "", validation("Invalid email address")
	}
	if len(in.Password) < 6 {
		return nil, "", validation("Password must be at least 6 characters")
	}

	var loc *models.Location
	if !in.Location.IsZero() {
		if loc = location.Resolve(in.Location); loc == nil {
			return nil, "", validation("Invalid location format. Please use 'City, State' format")
		}
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := s.opts.Now()
	user := &models.User{
		Name:        in.Name,
		Email:       in.Email,
		Password:    hashed,
		Role:        role,
		CompanyName: strings.TrimSpace(in.CompanyName),
		Phone:       strings.TrimSpace(in.Phone),
		Address:     strings.TrimSpace(in.Address),
		GSTNumber:   strings.TrimSpace(in.GSTNumber),
		PANNumber:   strings.TrimSpace(in.PANNumber),
		Location:    loc,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.opts.Store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", conflict("User with this email already exists")
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}

	logrus.WithFields(logrus.Fields{"userId": user.ID.Hex(), "userType": user.Role}).Info("User registered")
	return user, token, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", validation("Email and password are required")
	}

	user, err := s.opts.Store.Users().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", unauthenticated("Invalid email or password")
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPasswordHash(password, user.Password) {
		return nil, "", unauthenticated("Invalid email or password")
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.ParseJWT(token)
	if err != nil {
		return nil, unauthenticated("Invalid or expired token")
	}
	id, err := parseID(claims.Subject, "User")
	if err != nil {
		return nil, unauthenticated("Invalid token")
	}
	user, err := s.opts.Store.Users().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, unauthenticated("Invalid token")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

type ProfileInput struct {
	Name        *string
	CompanyName *string
	Phone       *string
	Address     *string
	GSTNumber   *string
	PANNumber   *string
	Location    *models.LocationInput
}

func (s *AccountService) UpdateProfile(ctx context.Context, actor *models.User, in ProfileInput) (*models.User, error) {
	if actor == nil {
		return nil, unauthenticated("Authentication required")
	}
	user, err := s.opts.Store.Users().GetByID(ctx, actor.ID)
	if err != nil {
		return nil, storeErr(err, "User", "find user")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validation("Name cannot be empty")
		}
		user.Name = name
	}
	setTrimmed(&user.CompanyName, in.CompanyName)
	setTrimmed(&user.Phone, in.Phone)
	setTrimmed(&user.Address, in.Address)
	setTrimmed(&user.GSTNumber, in.GSTNumber)
	setTrimmed(&user.PANNumber, in.PANNumber)
	if in.Location != nil {
		if in.Location.IsZero() {
			user.Location = nil
		} else if user.Location = location.Resolve(*in.Location); user.Location == nil {
			return nil, validation("Invalid location format. Please use 'City, State' format")
		}
	}
	user.UpdatedAt = s.opts.Now()

	if err := s.opts.Store.Users().Update(ctx, user); err != nil {
		return nil, storeErr(err, "User", "update user")
	}
	return user, nil
}

func (s *AccountService) issue(user *models.User) (string, error) {
	token, err := s.tokens.GenerateJWT(user.ID.Hex(), user.Email, string(user.Role))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
