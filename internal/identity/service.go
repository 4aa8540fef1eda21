// Package identity wraps the hosted identity service and keeps a profile
// row in the users table for every account that signs up or logs in.
//
// Profile upkeep is self-healing: a failed profile read or write is logged
// and never fails the operation that triggered it.
package identity

import (
	"context"
	"strings"

	"drafthub/internal/identity/model"
	"drafthub/internal/session"
	"drafthub/pkg/apperr"
	"drafthub/pkg/logger"
)

type ProfileStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
	Insert(ctx context.Context, p model.Profile) error
	Get(ctx context.Context, userID string) (*model.Profile, error)
}

type Service struct {
	Provider Provider
	Profiles ProfileStore
}

func NewService(provider Provider, profiles ProfileStore) *Service {
	return &Service{Provider: provider, Profiles: profiles}
}

func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (*model.Account, error) {
	const op = "identity.register"
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperr.Validation(op, "email and password are required")
	}

	acct, err := s.Provider.SignUp(ctx, email, req.Password, req.Name)
	if err != nil {
		return nil, apperr.Auth(op, err)
	}
	if acct.ID == "" {
		return acct, nil
	}

	if err := s.Profiles.Insert(ctx, model.Profile{ID: acct.ID, Name: req.Name, Email: email}); err != nil {
		logger.Sugar.Warnf("Registered user %s but profile insert failed: %v", acct.ID, err)
	}
	return acct, nil
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.Account, error) {
	const op = "identity.login"
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apperr.Validation(op, "email and password are required")
	}

	acct, err := s.Provider.SignIn(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, apperr.Auth(op, err)
	}
	s.ensureProfile(ctx, acct)
	return acct, nil
}

// Logout revokes the caller's session. Without a session there is nothing
// to revoke.
func (s *Service) Logout(ctx context.Context, caller *session.Identity) error {
	if caller == nil || caller.AccessToken == "" {
		return nil
	}
	if err := s.Provider.SignOut(ctx, caller.AccessToken); err != nil {
		return apperr.Auth("identity.logout", err)
	}
	return nil
}

// CurrentUser confirms the caller's token with the identity service.
// It returns nil, nil when there is no caller.
func (s *Service) CurrentUser(ctx context.Context, caller *session.Identity) (*session.Identity, error) {
	if caller == nil {
		return nil, nil
	}
	if caller.AccessToken == "" {
		return caller, nil
	}

	acct, err := s.Provider.GetUser(ctx, caller.AccessToken)
	if err != nil {
		return nil, apperr.Auth("identity.current_user", err)
	}
	s.ensureProfile(ctx, acct)
	return &session.Identity{
		UserID:      acct.ID,
		Email:       acct.Email,
		DisplayName: acct.Name,
		AccessToken: caller.AccessToken,
	}, nil
}

// Me resolves the caller and adds department and position from their
// profile row. A missing or unreadable profile leaves those fields empty.
func (s *Service) Me(ctx context.Context, caller *session.Identity) (*model.Me, error) {
	id, err := s.CurrentUser(ctx, caller)
	if err != nil || id == nil {
		return nil, err
	}

	me := &model.Me{ID: id.UserID, Email: id.Email, Name: id.DisplayName}
	p, err := s.Profiles.Get(ctx, id.UserID)
	switch {
	case err == nil:
		me.Department = p.Department
		me.Position = p.Position
		if me.Name == "" {
			me.Name = p.Name
		}
	case apperr.KindOf(err) == apperr.KindNotFound:
	default:
		logger.Sugar.Warnf("Skipping profile fields for user %s: %v", id.UserID, err)
	}
	return me, nil
}

func (s *Service) ensureProfile(ctx context.Context, acct *model.Account) {
	if acct == nil || acct.ID == "" {
		return
	}
	exists, err := s.Profiles.Exists(ctx, acct.ID)
	if err != nil {
		logger.Sugar.Warnf("Skipping profile check for user %s: %v", acct.ID, err)
		return
	}
	if exists {
		return
	}
	if err := s.Profiles.Insert(ctx, model.Profile{ID: acct.ID, Name: acct.Name, Email: acct.Email}); err != nil {
		logger.Sugar.Warnf("Could not create missing profile for user %s: %v", acct.ID, err)
		return
	}
	logger.Sugar.Infof("Created missing profile for user %s", acct.ID)
}
