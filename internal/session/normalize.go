package session

import (
	"encoding/json"

	"github.com/trashdash/trashdash-go/internal/models"
)

// The backend has never settled on a single auth response shape: it differs
// between endpoints and has changed between deployments. Normalization
// isolates that inconsistency here, behind an ordered list of matchers
// tried first to last. Adding tolerance for a new shape means adding one
// matcher, nothing else.

// rawAuthEnvelope is a superset of every auth response shape the backend
// has been observed to return.
type rawAuthEnvelope struct {
	Success      bool         `json:"success"`
	Data         *rawAuthData `json:"data"`
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type rawAuthData struct {
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

// authMatcher extracts a candidate (user, token) pair from the envelope.
// Returning ok means the shape matched; the extracted fields may still be
// incomplete, which callers report as ErrMissingCredentials.
type authMatcher func(*rawAuthEnvelope) (*models.AuthResponse, bool)

// authMatchers is tried in order; first match wins.
var authMatchers = []authMatcher{
	// {success: true, data: {user, token}}
	func(raw *rawAuthEnvelope) (*models.AuthResponse, bool) {
		if !raw.Success || raw.Data == nil {
			return nil, false
		}
		return &models.AuthResponse{
			User:         raw.Data.User,
			Token:        raw.Data.Token,
			RefreshToken: raw.Data.RefreshToken,
		}, true
	},
	// {user, token}
	func(raw *rawAuthEnvelope) (*models.AuthResponse, bool) {
		if raw.User == nil || raw.Token == "" {
			return nil, false
		}
		return &models.AuthResponse{
			User:         raw.User,
			Token:        raw.Token,
			RefreshToken: raw.RefreshToken,
		}, true
	},
	// {data: {user, token}}
	func(raw *rawAuthEnvelope) (*models.AuthResponse, bool) {
		if raw.Data == nil || raw.Data.User == nil || raw.Data.Token == "" {
			return nil, false
		}
		return &models.AuthResponse{
			User:         raw.Data.User,
			Token:        raw.Data.Token,
			RefreshToken: raw.Data.RefreshToken,
		}, true
	},
	// {accessToken, user}
	func(raw *rawAuthEnvelope) (*models.AuthResponse, bool) {
		if raw.AccessToken == "" {
			return nil, false
		}
		return &models.AuthResponse{
			User:         raw.User,
			Token:        raw.AccessToken,
			RefreshToken: raw.RefreshToken,
		}, true
	},
	// {token, user}
	func(raw *rawAuthEnvelope) (*models.AuthResponse, bool) {
		if raw.Token == "" {
			return nil, false
		}
		return &models.AuthResponse{
			User:         raw.User,
			Token:        raw.Token,
			RefreshToken: raw.RefreshToken,
		}, true
	},
}

// normalizeAuth maps a raw login/register/refresh body to the canonical
// AuthResponse, or fails with ErrInvalidResponseFormat when no shape
// matches and ErrMissingCredentials when a shape matched but half the
// pair is missing.
func normalizeAuth(body json.RawMessage) (*models.AuthResponse, error) {
	var raw rawAuthEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, ErrInvalidResponseFormat
	}

	for _, match := range authMatchers {
		auth, ok := match(&raw)
		if !ok {
			continue
		}
		if auth.User == nil || auth.Token == "" {
			return nil, ErrMissingCredentials
		}
		return auth, nil
	}
	return nil, ErrInvalidResponseFormat
}

// normalizeProfile maps a profile body to a User. The backend returns
// either {success, data}, {user}, or the user object with no envelope.
func normalizeProfile(body json.RawMessage) (*models.User, error) {
	var raw struct {
		Success bool         `json:"success"`
		Data    *models.User `json:"data"`
		User    *models.User `json:"user"`
	}
	if err := json.Unmarshal(body, &raw); err == nil {
		if raw.Success && raw.Data != nil {
			return raw.Data, nil
		}
		if raw.User != nil {
			return raw.User, nil
		}
	}

	var user models.User
	if err := json.Unmarshal(body, &user); err == nil && (user.ID != "" || user.Email != "") {
		return &user, nil
	}
	return nil, ErrInvalidResponseFormat
}
