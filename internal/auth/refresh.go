package auth

import (
	"context"
	"errors"
	"strings"

	pkgAuth "github.com/angelmondragon/backoffice-backend/pkg/auth"
	"github.com/angelmondragon/backoffice-backend/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

// Refresh trades an access token (expired or not) and its refresh token for
// a new pair. Role changes made since login show up in the new token.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwt, strings.TrimSpace(req.AccessToken))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if errors.Is(err, errInactiveUser) {
		if revokeErr := s.sessions.Revoke(ctx, claims.ID); revokeErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, revokeErr, "revoke session")
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	accessID, refreshToken, err := s.sessions.Rotate(ctx, claims.ID, strings.TrimSpace(req.RefreshToken))
	switch {
	case errors.Is(err, session.ErrInvalidRefreshToken):
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	return s.issue(s.now().UTC(), user, accessID, refreshToken)
}
