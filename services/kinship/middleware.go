// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package kinship

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	kinbadger "github.com/AleutianAI/AleutianKin/services/kinship/storage/badger"
)

// Context keys set by the middleware.
const (
	ctxKeyRequestID = "request_id"
	ctxKeyAccount   = "kinship.account"
)

// AuthOptions selects how requests are bound to accounts.
type AuthOptions struct {
	// JWTSecret verifies HS256 bearer tokens. Empty disables bearer auth.
	JWTSecret []byte

	// AccountHeader names the account when no bearer token is sent.
	AccountHeader string

	// Required rejects requests without a valid bearer token.
	Required bool
}

// RateLimitOptions throttles each account. Zero RequestsPerMinute disables
// limiting.
type RateLimitOptions struct {
	RequestsPerMinute int
	Burst             int
}

func abortWithError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// getOrCreateRequestID returns the request ID, minting one if the request
// carried none.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetString(ctxKeyRequestID); id != "" {
		return id
	}
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	c.Set(ctxKeyRequestID, requestID)
	return requestID
}

// RequestID tags every request with an X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		getOrCreateRequestID(c)
		c.Next()
	}
}

// RequestMetrics records per-route request counts and latency in m.
func RequestMetrics(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.observeRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// BodyLimit caps request bodies at n bytes. Non-positive n disables the cap.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// AccountAuth resolves the account of each request.
//
// Description:
//
//	A bearer token, when present, must be an HS256 JWT signed with
//	JWTSecret; its subject claim is the account. Without a token the
//	account comes from AccountHeader unless Required is set. The resolved
//	account must be a valid storage key.
//
// Response:
//
//	401 Unauthorized: bad, unverifiable or missing (when Required) token
//	400 Bad Request: no account, or an unusable account name
func AccountAuth(opts AuthOptions) gin.HandlerFunc {
	header := opts.AccountHeader
	if header == "" {
		header = "X-Account-ID"
	}
	return func(c *gin.Context) {
		account, err := resolveAccount(c.Request, opts, header)
		if err != nil {
			slog.Warn("account resolution failed",
				"request_id", getOrCreateRequestID(c),
				"token_present", c.GetHeader("Authorization") != "",
				"error", err)
			abortWithError(c, err)
			return
		}
		c.Set(ctxKeyAccount, account)
		c.Next()
	}
}

func resolveAccount(r *http.Request, opts AuthOptions, header string) (string, error) {
	if raw, ok := bearerToken(r); ok {
		if len(opts.JWTSecret) == 0 {
			return "", fmt.Errorf("%w: bearer tokens are not accepted", ErrUnauthorized)
		}
		account, err := accountFromToken(raw, opts.JWTSecret)
		if err != nil {
			return "", err
		}
		return account, kinbadger.ValidateAccount(account)
	}
	if opts.Required {
		return "", fmt.Errorf("%w: bearer token required", ErrUnauthorized)
	}
	account := strings.TrimSpace(r.Header.Get(header))
	if account == "" {
		return "", fmt.Errorf("%w: set the %s header", ErrAccountRequired, header)
	}
	return account, kinbadger.ValidateAccount(account)
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

func accountFromToken(raw string, secret []byte) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrUnauthorized)
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return claims.Subject, nil
}

// IssueToken signs an HS256 token whose subject is account. Used by the
// CLI and tests.
func IssueToken(secret []byte, account string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  account,
		IssuedAt: jwt.NewNumericDate(now),
		Issuer:   "kin",
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// accountOf returns the account resolved by AccountAuth.
func accountOf(c *gin.Context) string {
	return c.GetString(ctxKeyAccount)
}

type accountLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func (l *accountLimiter) get(account string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[account]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[account] = lim
	}
	return lim
}

// RateLimit throttles requests per account with a token bucket. It must
// run after AccountAuth.
//
// Response:
//
//	429 Too Many Requests with Retry-After when the bucket is empty
func RateLimit(opts RateLimitOptions, m *Metrics) gin.HandlerFunc {
	if opts.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := &accountLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(opts.RequestsPerMinute) / 60),
		burst:    burst,
	}
	return func(c *gin.Context) {
		lim := limiter.get(accountOf(c))
		if !lim.Allow() {
			m.observeRateLimited()
			retry := time.Duration(float64(time.Second) / float64(lim.Limit()))
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			abortWithError(c, fmt.Errorf("%w: account %s", ErrRateLimited, accountOf(c)))
			return
		}
		c.Next()
	}
}
