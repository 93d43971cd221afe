package tokenengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campushub/tokenengine/claims"
	"github.com/campushub/tokenengine/internal/stores"
)

// IssueEmailVerification mints a single-use email verification token for
// userID. Issuance never blocks on delivery: the caller hands the token to
// its mailer and registration succeeds whether or not the email sends.
func (e *Engine) IssueEmailVerification(ctx context.Context, userID, email string) (string, error) {
	return e.issuePurpose(ctx, claims.IntentEmailVerify, userID, email, e.config.Purpose.EmailVerifyTTL)
}

// IssuePasswordReset mints a single-use password reset token for userID.
func (e *Engine) IssuePasswordReset(ctx context.Context, userID, email string) (string, error) {
	return e.issuePurpose(ctx, claims.IntentPasswordReset, userID, email, e.config.Purpose.PasswordResetTTL)
}

func (e *Engine) issuePurpose(ctx context.Context, intent claims.Intent, userID, email string, ttl time.Duration) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if userID == "" {
		return "", errors.New("purpose token requires a user id")
	}

	now := e.now()
	token, err := e.purposeCodec.Sign(claims.Claims{
		Intent: intent,
		Nonce:  uuid.NewString(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	e.emitAudit(ctx, AuditEvent{
		EventType: AuditPurposeIssued,
		Intent:    string(intent),
		UserID:    userID,
		Success:   err == nil,
		Error:     errString(err),
	})
	if err != nil {
		return "", err
	}
	e.metricInc(MetricPurposeIssued)
	return token, nil
}

// ConsumeEmailVerification verifies and burns an email verification token,
// returning the user it was minted for. A second consumption of the same
// token returns ErrAlreadyUsed even though signature and expiry would still
// pass: the nonce mark in the store is what makes the token single-use.
func (e *Engine) ConsumeEmailVerification(ctx context.Context, tokenStr string) (string, error) {
	return e.consumePurpose(ctx, claims.IntentEmailVerify, tokenStr)
}

// ConsumePasswordReset verifies and burns a password reset token, returning
// the user it was minted for.
func (e *Engine) ConsumePasswordReset(ctx context.Context, tokenStr string) (string, error) {
	return e.consumePurpose(ctx, claims.IntentPasswordReset, tokenStr)
}

func (e *Engine) consumePurpose(ctx context.Context, intent claims.Intent, tokenStr string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	cl, err := e.purposeCodec.Verify(tokenStr, intent)
	if err != nil {
		return "", err
	}
	if cl.Nonce == "" || cl.Subject == "" {
		return "", fmt.Errorf("%w: purpose claims incomplete", ErrMalformedToken)
	}

	// the mark lives exactly as long as the token could still verify
	remaining := cl.ExpiresAt.Time.Sub(e.now()) + e.config.Signing.Leeway
	err = e.nonceStore.Consume(ctx, cl.Nonce, remaining)
	if errors.Is(err, stores.ErrNonceUsed) {
		e.metricInc(MetricPurposeReplayed)
		err = ErrAlreadyUsed
	}

	e.emitAudit(ctx, AuditEvent{
		EventType: AuditPurposeConsumed,
		Intent:    string(intent),
		UserID:    cl.Subject,
		Success:   err == nil,
		Error:     errString(err),
	})
	if err != nil {
		return "", err
	}
	e.metricInc(MetricPurposeConsumed)
	return cl.Subject, nil
}
