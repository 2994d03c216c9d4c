package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
	"github.com/shandysiswandi/mailbite/internal/pkg/jwt"
)

// Casbin object and actions guarding the resend API.
const (
	permObject    = "email"
	permActRead   = "read"
	permActResend = "resend"
)

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	for _, principal := range clm.Principals() {
		ok, err := s.enforcer.Enforce(principal, obj, act)
		if err != nil {
			slog.ErrorContext(ctx, "failed to check authorization", "user_id", clm.Subject, "principal", principal, "error", err)
			return nil, goerror.NewServer(err)
		}
		if ok {
			return clm, nil
		}
	}

	return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
}
