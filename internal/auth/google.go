package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

var (
	ErrUnverifiedIdentity = errors.New("identity provider did not return a verified email")
	ErrFederatedDisabled  = errors.New("google sign-in is not configured")
)

// Assertion is what the client sends after the Google sign-in popup: an ID token, or an auth code to exchange.
type Assertion struct {
	IDToken string `json:"id_token"`
	Code    string `json:"code"`
}

// Identity is a verified federated identity.
type Identity struct {
	Email       string
	Subject     string
	DisplayName string
	PhotoURL    string
}

// IdentityVerifier turns an assertion into a verified identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, a Assertion) (*Identity, error)
}

// GoogleVerifier verifies Google ID tokens for the configured OAuth client.
type GoogleVerifier struct {
	clientID string
	oauth    *oauth2.Config
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleVerifier creates a verifier for the OAuth client.
func NewGoogleVerifier(clientID, clientSecret, redirectURL string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		validate: idtoken.Validate,
	}
}

// OAuthConfig exposes the client configuration, e.g. for the Gmail sender's refresh-token source.
func (v *GoogleVerifier) OAuthConfig() *oauth2.Config {
	return v.oauth
}

// Verify validates the ID token, exchanging the auth code first when no token was sent.
func (v *GoogleVerifier) Verify(ctx context.Context, a Assertion) (*Identity, error) {
	raw := strings.TrimSpace(a.IDToken)
	if raw == "" && a.Code != "" {
		tok, err := v.oauth.Exchange(ctx, a.Code)
		if err != nil {
			return nil, fmt.Errorf("exchange auth code: %w", err)
		}
		raw, _ = tok.Extra("id_token").(string)
	}
	if raw == "" {
		return nil, ErrUnverifiedIdentity
	}
	payload, err := v.validate(ctx, raw, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}
	return identityFromClaims(payload.Subject, payload.Claims)
}

func identityFromClaims(subject string, claims map[string]interface{}) (*Identity, error) {
	email, _ := claims["email"].(string)
	verified, _ := claims["email_verified"].(bool)
	if email == "" || !verified {
		return nil, ErrUnverifiedIdentity
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	return &Identity{Email: email, Subject: subject, DisplayName: name, PhotoURL: picture}, nil
}
