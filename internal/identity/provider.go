package identity

import (
	"context"
	"fmt"

	"drafthub/internal/identity/model"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	supabase "github.com/supabase-community/supabase-go"
)

// Provider is the hosted identity service.
type Provider interface {
	SignUp(ctx context.Context, email, password, name string) (*model.Account, error)
	SignIn(ctx context.Context, email, password string) (*model.Account, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*model.Account, error)
}

// SupabaseProvider talks to Supabase Auth (GoTrue) through the supabase-go
// SDK. The SDK calls take no context, so ctx is only checked before each call.
type SupabaseProvider struct {
	client *supabase.Client
}

func NewSupabaseProvider(url, anonKey string) (*SupabaseProvider, error) {
	client, err := supabase.NewClient(url, anonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase SDK: %w", err)
	}
	return &SupabaseProvider{client: client}, nil
}

func (p *SupabaseProvider) SignUp(ctx context.Context, email, password, name string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := p.client.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     map[string]interface{}{"name": name},
	})
	if err != nil {
		return nil, err
	}

	acct := accountFromUser(resp.User)
	acct.AccessToken = resp.Session.AccessToken
	acct.RefreshToken = resp.Session.RefreshToken
	acct.ExpiresAt = resp.Session.ExpiresAt
	if acct.ID == "" {
		// autoconfirm on: the user only comes back inside the session
		acct = accountFromSession(resp.Session)
	}
	return acct, nil
}

func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := p.client.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, err
	}
	return accountFromSession(resp.Session), nil
}

func (p *SupabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.client.Auth.WithToken(accessToken).Logout()
}

func (p *SupabaseProvider) GetUser(ctx context.Context, accessToken string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := p.client.Auth.WithToken(accessToken).GetUser()
	if err != nil {
		return nil, err
	}
	acct := accountFromUser(resp.User)
	acct.AccessToken = accessToken
	return acct, nil
}

func accountFromSession(s types.Session) *model.Account {
	acct := accountFromUser(s.User)
	acct.AccessToken = s.AccessToken
	acct.RefreshToken = s.RefreshToken
	acct.ExpiresAt = s.ExpiresAt
	return acct
}

func accountFromUser(u types.User) *model.Account {
	acct := &model.Account{Email: u.Email}
	if u.ID != uuid.Nil {
		acct.ID = u.ID.String()
	}
	if name, ok := u.UserMetadata["name"].(string); ok {
		acct.Name = name
	}
	return acct
}
