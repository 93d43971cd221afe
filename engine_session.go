package tokenengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campushub/tokenengine/claims"
	"github.com/campushub/tokenengine/internal/stores"
)

// IssueSession mints an access+refresh pair for user. The access token is
// short-lived and stateless; the refresh token is backed by a revocation
// record so it can be rotated exactly once. rememberMe stretches the refresh
// TTL from the default to the remember-me window.
func (e *Engine) IssueSession(ctx context.Context, user SessionUser, rememberMe bool) (SessionTokenPair, error) {
	if e == nil {
		return SessionTokenPair{}, ErrEngineNotReady
	}
	if user.UserID == "" {
		return SessionTokenPair{}, errors.New("session requires a user id")
	}

	pair, tokenID, err := e.issuePair(ctx, user, rememberMe)

	e.emitAudit(ctx, AuditEvent{
		EventType: AuditSessionIssued,
		Intent:    string(claims.IntentRefresh),
		UserID:    user.UserID,
		TokenID:   tokenID,
		Success:   err == nil,
		Error:     errString(err),
	})
	if err != nil {
		return SessionTokenPair{}, err
	}
	e.metricInc(MetricSessionIssued)
	return pair, nil
}

// issuePair signs both tokens and persists the refresh record. The record
// must exist before the pair is handed out: a refresh token with no record
// verifies cryptographically but is dead on arrival at rotation.
func (e *Engine) issuePair(ctx context.Context, user SessionUser, rememberMe bool) (SessionTokenPair, string, error) {
	now := e.now()
	accessExpires := now.Add(e.config.Session.AccessTTL)

	refreshTTL := e.config.Session.RefreshTTL
	if rememberMe {
		refreshTTL = e.config.Session.RememberMeRefreshTTL
	}
	refreshExpires := now.Add(refreshTTL)
	tokenID := uuid.NewString()

	access, err := e.sessionCodec.Sign(claims.Claims{
		Intent:       claims.IntentAccess,
		Role:         user.Role,
		DisplayName:  user.DisplayName,
		SessionEpoch: user.SessionEpoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpires),
		},
	})
	if err != nil {
		return SessionTokenPair{}, tokenID, err
	}

	refresh, err := e.sessionCodec.Sign(claims.Claims{
		Intent: claims.IntentRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpires),
		},
	})
	if err != nil {
		return SessionTokenPair{}, tokenID, err
	}

	err = e.refreshStore.Save(ctx, tokenID, &stores.RefreshRecord{
		UserID:       user.UserID,
		Role:         user.Role,
		DisplayName:  user.DisplayName,
		SessionEpoch: user.SessionEpoch,
		Remember:     rememberMe,
		IssuedAt:     now.Unix(),
	}, refreshTTL)
	if err != nil {
		return SessionTokenPair{}, tokenID, err
	}

	return SessionTokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExpires,
		RefreshExpiresAt: refreshExpires,
	}, tokenID, nil
}

// VerifyAccess validates an access token without any store round-trip. It is
// the per-request hot path; revocation state is deliberately not consulted
// (see Invalidate).
func (e *Engine) VerifyAccess(tokenStr string) (*AccessIdentity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	cl, err := e.sessionCodec.Verify(tokenStr, claims.IntentAccess)
	if err != nil {
		e.metricInc(MetricAccessRejected)
		return nil, err
	}
	if cl.Subject == "" {
		e.metricInc(MetricAccessRejected)
		return nil, fmt.Errorf("%w: missing subject", ErrMalformedToken)
	}

	e.metricInc(MetricAccessVerified)
	return &AccessIdentity{
		UserID:       cl.Subject,
		Role:         cl.Role,
		DisplayName:  cl.DisplayName,
		SessionEpoch: cl.SessionEpoch,
		ExpiresAt:    cl.ExpiresAt.Time,
	}, nil
}

// RotateRefresh exchanges a live refresh token for a brand-new pair and
// revokes the old one in the same atomic store operation. Of any number of
// concurrent rotations with the same token, exactly one succeeds; the rest,
// and every later attempt, get ErrRevoked. A refused rotation whose record
// was already revoked is the replay signal surfaced through audit and
// metrics.
func (e *Engine) RotateRefresh(ctx context.Context, tokenStr string) (SessionTokenPair, error) {
	if e == nil {
		return SessionTokenPair{}, ErrEngineNotReady
	}

	cl, err := e.sessionCodec.Verify(tokenStr, claims.IntentRefresh)
	if err != nil {
		return SessionTokenPair{}, err
	}
	if cl.ID == "" || cl.Subject == "" {
		return SessionTokenPair{}, fmt.Errorf("%w: refresh claims incomplete", ErrMalformedToken)
	}

	record, err := e.refreshStore.Revoke(ctx, cl.ID, e.now().Unix())
	if err != nil {
		if errors.Is(err, stores.ErrRefreshRevoked) {
			e.metricInc(MetricRefreshReuseDetected)
			e.emitAudit(ctx, AuditEvent{
				EventType: AuditSessionReuse,
				Intent:    string(claims.IntentRefresh),
				UserID:    cl.Subject,
				TokenID:   cl.ID,
				Error:     err.Error(),
			})
			return SessionTokenPair{}, ErrRevoked
		}
		return SessionTokenPair{}, err
	}
	if record.UserID != cl.Subject {
		// record/claims divergence should be impossible; fail closed
		return SessionTokenPair{}, ErrRevoked
	}

	pair, newTokenID, err := e.issuePair(ctx, SessionUser{
		UserID:       record.UserID,
		Role:         record.Role,
		DisplayName:  record.DisplayName,
		SessionEpoch: record.SessionEpoch,
	}, record.Remember)

	e.emitAudit(ctx, AuditEvent{
		EventType: AuditSessionRotated,
		Intent:    string(claims.IntentRefresh),
		UserID:    cl.Subject,
		TokenID:   newTokenID,
		Success:   err == nil,
		Error:     errString(err),
	})
	if err != nil {
		return SessionTokenPair{}, err
	}
	e.metricInc(MetricRefreshRotated)
	return pair, nil
}

// Invalidate revokes the refresh record behind tokenStr (logout). The
// still-live access token is NOT denylisted and stays usable until natural
// expiry, a short-exposure window bounded by the access TTL.
func (e *Engine) Invalidate(ctx context.Context, tokenStr string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	cl, err := e.sessionCodec.Verify(tokenStr, claims.IntentRefresh)
	if err != nil {
		return err
	}
	if cl.ID == "" {
		return fmt.Errorf("%w: refresh claims incomplete", ErrMalformedToken)
	}

	_, err = e.refreshStore.Revoke(ctx, cl.ID, e.now().Unix())
	if errors.Is(err, stores.ErrRefreshRevoked) {
		err = ErrRevoked
	}

	e.emitAudit(ctx, AuditEvent{
		EventType: AuditSessionRevoked,
		Intent:    string(claims.IntentRefresh),
		UserID:    cl.Subject,
		TokenID:   cl.ID,
		Success:   err == nil,
		Error:     errString(err),
	})
	if err != nil {
		return err
	}
	e.metricInc(MetricSessionInvalidated)
	return nil
}
