package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/store"
	"github.com/ethnicdev/gatehouse/pkg/cryptox"
	"github.com/ethnicdev/gatehouse/pkg/jwtx"
	"github.com/ethnicdev/gatehouse/pkg/slogx"
)

// TokenAuthority issues, verifies and revokes bearer tokens. Verification is
// two tier: signature and expiry are checked statelessly, then the token id
// is looked up in the revocation store.
type TokenAuthority struct {
	Store  store.Store
	Codec  *jwtx.Codec
	Hasher *cryptox.PasswordHasher

	// RefreshableDuration is measured from iat. A token can be exchanged or
	// logged out until iat+RefreshableDuration even after exp has passed.
	RefreshableDuration time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// IntrospectResult is what resource servers and the gateway see.
type IntrospectResult struct {
	Valid bool `json:"valid"`
}

func (a *TokenAuthority) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Authenticate checks username and password and issues a token scoped to the
// user's current roles. Unknown users and wrong passwords are
// indistinguishable to the caller and cost the same hashing work.
func (a *TokenAuthority) Authenticate(ctx context.Context, username, password string) (domain.IssuedToken, error) {
	l := slogx.FromContext(ctx)

	user, err := a.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.Hasher.VerifyDummy(password)
			l.Info("authentication failed", slog.String("reason", ErrSubjectNotFound.Error()))
			return domain.IssuedToken{}, unauthenticated(ErrSubjectNotFound)
		}
		return domain.IssuedToken{}, err
	}

	if err := a.Hasher.Verify(password, user.PasswordHash); err != nil {
		l.Info("authentication failed",
			slog.String("reason", ErrCredentialMismatch.Error()),
			slog.String("user_id", user.ID),
		)
		return domain.IssuedToken{}, unauthenticated(ErrCredentialMismatch)
	}

	return a.issueFor(ctx, a.Store, user.ID, user.Username)
}

// Verify checks signature, expiry and revocation. With isRefreshCheck the
// deadline is iat+RefreshableDuration instead of exp.
func (a *TokenAuthority) Verify(ctx context.Context, token string, isRefreshCheck bool) (jwtx.Claims, error) {
	claims, err := a.Codec.Parse(token)
	if err != nil {
		if errors.Is(err, jwtx.ErrInvalidSig) {
			return jwtx.Claims{}, unauthenticated(ErrSignatureInvalid)
		}
		return jwtx.Claims{}, unauthenticated(ErrMalformedToken)
	}

	deadline := claims.ExpiresAtUnix()
	if isRefreshCheck {
		deadline = claims.IssuedAtUnix() + int64(a.RefreshableDuration/time.Second)
	}
	if deadline <= a.now().Unix() {
		return jwtx.Claims{}, unauthenticated(ErrExpired)
	}

	revoked, err := a.Store.RevokedTokens().IsRevoked(ctx, claims.ID)
	if err != nil {
		return jwtx.Claims{}, err
	}
	if revoked {
		return jwtx.Claims{}, unauthenticated(ErrRevoked)
	}
	return claims, nil
}

// Introspect never fails; any verification error, including a store outage,
// reports the token as invalid.
func (a *TokenAuthority) Introspect(ctx context.Context, token string) IntrospectResult {
	if _, err := a.Verify(ctx, token, false); err != nil {
		slogx.FromContext(ctx).Debug("introspection rejected token", slog.Any("error", err))
		return IntrospectResult{Valid: false}
	}
	return IntrospectResult{Valid: true}
}

// Logout revokes a token that is still inside its refresh window. Tokens
// that fail verification are already unusable, so that case succeeds.
func (a *TokenAuthority) Logout(ctx context.Context, token string) error {
	claims, err := a.Verify(ctx, token, true)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			slogx.FromContext(ctx).Info("logout of unusable token", slog.Any("error", err))
			return nil
		}
		return err
	}

	return a.Store.RevokedTokens().RecordRevocation(ctx, domain.RevokedToken{
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		Reason:    domain.RevokedByLogout,
		RevokedAt: a.now(),
	})
}

// RefreshToken revokes the presented token and issues a new one built from
// the subject's current roles. Revocation and the role lookup share a
// transaction, so a subject deleted in between leaves the old token intact.
func (a *TokenAuthority) RefreshToken(ctx context.Context, token string) (domain.IssuedToken, error) {
	claims, err := a.Verify(ctx, token, true)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	var issued domain.IssuedToken
	err = a.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByUsername(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return unauthenticated(ErrSubjectNotFound)
			}
			return err
		}

		err = tx.RevokedTokens().RecordRevocation(ctx, domain.RevokedToken{
			TokenID:   claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
			Reason:    domain.RevokedByRefresh,
			RevokedAt: a.now(),
		})
		if err != nil {
			return err
		}

		issued, err = a.issueFor(ctx, tx, user.ID, user.Username)
		return err
	})
	if err != nil {
		return domain.IssuedToken{}, err
	}

	slogx.FromContext(ctx).Info("token refreshed",
		slog.String("old_jti", claims.ID),
		slog.String("new_jti", issued.TokenID),
	)
	return issued, nil
}

func (a *TokenAuthority) issueFor(ctx context.Context, s store.Store, userID, username string) (domain.IssuedToken, error) {
	roles, err := s.Roles().RolesForUser(ctx, userID)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	grants := make([]jwtx.Grant, len(roles))
	for i, r := range roles {
		grants[i] = jwtx.Grant{Role: r.Name, Permissions: r.Permissions}
	}

	signed, claims, err := a.Codec.Issue(username, jwtx.BuildScope(grants), a.now())
	if err != nil {
		return domain.IssuedToken{}, err
	}

	return domain.IssuedToken{
		Token:     signed,
		TokenID:   claims.ID,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
