package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"treasury_dashboard/internal/app/mapper"
	"treasury_dashboard/internal/app/port"
	"treasury_dashboard/internal/app/store"
	dto "treasury_dashboard/internal/entity"
)

// Session receives the token issued at sign-in.
type Session interface {
	Login(token string, admin store.AdminIdentity)
	Logout()
	Persist() error
}

// AuthService runs the wallet-signature sign-in: fetch a challenge for an address, sign
// it, and trade message plus signature for a bearer token.
type AuthService struct {
	*base
	session Session
}

func newAuthService(b *base, session Session) *AuthService {
	return &AuthService{base: b, session: session}
}

// Challenge returns the message the admin must sign. The backend answers with
// {"message": ...} or with the plain text message.
func (s *AuthService) Challenge(ctx context.Context, address string) (string, error) {
	addr, err := ValidateAddress(address)
	if err != nil {
		return "", err
	}
	resp, err := s.api.Do(ctx, port.Request{Method: "GET", Path: "auth/challenge/" + addr, SkipAuth: true})
	if err != nil {
		return "", fmt.Errorf("fetch auth challenge: %w", err)
	}
	message := resp.Text()
	if resp.JSON {
		message = mapper.DecodeObject[dto.AuthChallengeDTO](resp.Body).Message
	}
	if strings.TrimSpace(message) == "" {
		return "", errors.New("auth challenge is empty")
	}
	return message, nil
}

// Login submits a signed challenge and stores the returned token for address.
func (s *AuthService) Login(ctx context.Context, address, message, signature string) (string, error) {
	resp, err := s.api.Do(ctx, port.Request{
		Method:   "POST",
		Path:     "auth/login",
		Body:     dto.AuthLoginPayload{SiweMessage: message, Signature: signature},
		SkipAuth: true,
	})
	if err != nil {
		return "", fmt.Errorf("submit auth login: %w", err)
	}
	token := strings.TrimSpace(mapper.DecodeObject[dto.AuthLoginResponseDTO](resp.Body).Token)
	if token == "" {
		return "", errors.New("auth login returned no token")
	}
	if s.session != nil {
		s.session.Login(token, store.AdminIdentity{Address: address})
		if err := s.session.Persist(); err != nil {
			return token, err
		}
	}
	s.debug("Admin signed in", "address", address)
	return token, nil
}

// SignIn runs the whole flow with signer.
func (s *AuthService) SignIn(ctx context.Context, signer port.Signer) (string, error) {
	address := signer.Address()
	message, err := s.Challenge(ctx, address)
	if err != nil {
		return "", err
	}
	signature, err := signer.SignMessage(message)
	if err != nil {
		return "", fmt.Errorf("sign auth challenge: %w", err)
	}
	return s.Login(ctx, address, message, signature)
}

// Logout clears the session and drops cached admin-only reads.
func (s *AuthService) Logout() error {
	s.cache.Remove(AdminsKey(), allAuditLogs)
	if s.session == nil {
		return nil
	}
	s.session.Logout()
	return s.session.Persist()
}
