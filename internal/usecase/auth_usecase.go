package usecase

import (
	"context"
	"strings"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

type AuthUseCase struct {
	userRepo repository.UserRepository
	verifier TokenVerifier
	issuer   TokenIssuer
}

// NewAuthUseCase wires the credential verifier. issuer may be nil when tokens
// are minted elsewhere.
func NewAuthUseCase(userRepo repository.UserRepository, verifier TokenVerifier, issuer TokenIssuer) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
	}
}

// Authenticate resolves a bearer credential to its user. Every failure is Unauthorized.
func (uc *AuthUseCase) Authenticate(ctx context.Context, credential string) (*entity.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	uid, err := uc.verifier.VerifyToken(ctx, credential)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Unauthorized("User not found", err)
		}
		return nil, err
	}

	return user, nil
}

func (uc *AuthUseCase) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

func (uc *AuthUseCase) ListUsers(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	users, total, err := uc.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if users == nil {
		users = []*entity.User{}
	}
	return users, total, nil
}

// IssueToken signs a bearer token for an existing user.
func (uc *AuthUseCase) IssueToken(ctx context.Context, userID string) (string, error) {
	if uc.issuer == nil {
		return "", errors.BadRequest("Token issuing is not enabled", nil)
	}

	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return "", err
	}

	token, err := uc.issuer.GenerateToken(userID)
	if err != nil {
		return "", errors.Internal("Failed to issue token", err)
	}
	return token, nil
}
