package auth

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/store"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// SupabaseProvider delegates accounts to a hosted Supabase project.
type SupabaseProvider struct {
	client gotrue.Client
}

func NewSupabaseProvider(projectRef, anonKey string) (*SupabaseProvider, error) {
	if projectRef == "" || anonKey == "" {
		return nil, fmt.Errorf("supabase auth requires SUPABASE_PROJECT_REF and SUPABASE_ANON_KEY")
	}
	return &SupabaseProvider{client: gotrue.New(projectRef, anonKey)}, nil
}

func (p *SupabaseProvider) SignUp(_ context.Context, email, password string) (store.Session, error) {
	email = normalizeEmail(email)
	if err := validateSignUp(email, password); err != nil {
		return store.Session{}, err
	}

	resp, err := p.client.Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already registered") {
			return store.Session{}, ErrEmailTaken
		}
		return store.Session{}, fmt.Errorf("supabase signup failed: %w", err)
	}

	return store.Session{UserID: resp.User.ID.String(), Email: resp.User.Email}, nil
}

func (p *SupabaseProvider) SignIn(_ context.Context, email, password string) (store.Session, error) {
	resp, err := p.client.SignInWithEmailPassword(normalizeEmail(email), password)
	if err != nil {
		return store.Session{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return store.Session{UserID: resp.User.ID.String(), Email: resp.User.Email}, nil
}
