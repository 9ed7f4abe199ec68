// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Access Token Inspection

// expirySkew is subtracted from the token expiry so a token about to lapse
// mid-request is treated as already expired.
const expirySkew = 30 * time.Second

// tokenExpiry extracts the expiry timestamp from a JWT access token without
// verifying its signature.
//
// # Why unverified?
//
// The client holds no signing key — verification is the backend's job. The
// expiry claim is only used locally to decide whether a proactive refresh is
// worthwhile before spending a round-trip that would 401 anyway.
func tokenExpiry(accessToken string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()

	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, fmt.Errorf("session: unparseable access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("session: access token carries no expiry")
	}

	return claims.ExpiresAt.Time, nil
}

// tokenExpired reports whether the access token is expired (or close enough
// to expiry that it should be refreshed). Unparseable tokens count as
// expired: the refresh path will settle the question authoritatively.
func tokenExpired(accessToken string, now time.Time) bool {
	expiry, err := tokenExpiry(accessToken)
	if err != nil {
		return true
	}
	return !now.Before(expiry.Add(-expirySkew))
}
