package auth

import (
	"time"

	"golang.org/x/oauth2"
)

// Session is a signed-in user's token set.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	IDToken      string    `json:"idToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenType    string    `json:"tokenType,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// User is the profile returned by the userInfo endpoint.
type User struct {
	Username   string         `json:"username"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// pending is the sign-in started by SignInURL and not yet completed.
type pending struct {
	State    string `json:"state"`
	Verifier string `json:"verifier"`
	Redirect string `json:"redirect"`
}

// expiryLeeway treats tokens about to expire as expired.
const expiryLeeway = 10 * time.Second

func (s *Session) expired(now time.Time) bool {
	return !s.Expiry.IsZero() && !now.Add(expiryLeeway).Before(s.Expiry)
}

func sessionFromToken(tok *oauth2.Token, previous *Session) *Session {
	s := &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		s.IDToken = id
	}
	// Refresh responses may omit tokens that stay valid.
	if previous != nil {
		if s.RefreshToken == "" {
			s.RefreshToken = previous.RefreshToken
		}
		if s.IDToken == "" {
			s.IDToken = previous.IDToken
		}
	}
	return s
}
