// Package auth guards the PACT endpoints: it issues bearer tokens against the
// static client credentials, verifies them on protected routes, and carries
// request identity for logging and rate limiting.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mindburn-Labs/pact-conformance/pkg/api"
	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

// DefaultTTL is the lifetime of issued tokens.
const DefaultTTL = time.Hour

// ErrInvalidToken is returned for bearer tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token")

// Credentials is the static client credential pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Claims are carried by issued access tokens.
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// TokenResponse is the body of a successful token request.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Issuer mints and verifies HS256 access tokens for one credential pair.
type Issuer struct {
	creds  Credentials
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewIssuer creates an issuer. A non-positive ttl selects DefaultTTL.
func NewIssuer(creds Credentials, secret string, ttl time.Duration, logger *slog.Logger) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Issuer{creds: creds, secret: []byte(secret), ttl: ttl, now: time.Now, logger: logger}
}

// Issue signs a token for clientID.
func (i *Issuer) Issue(clientID string) (string, error) {
	now := i.now()
	claims := Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenStr and checks signature and expiry. Expired tokens
// yield an error matching jwt.ErrTokenExpired.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", ErrInvalidToken)
	}
	return claims, nil
}

// ServeHTTP answers POST /auth/token. The client authenticates with HTTP
// Basic credentials; the request body is ignored.
func (i *Issuer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID, secret, ok := parseBasic(r.Header.Get("Authorization"))
	if !ok {
		api.WriteLegacyError(w, http.StatusUnauthorized, pact.CodeAccessDenied, "Authorization header missing or invalid")
		return
	}
	if clientID == "" || secret == "" {
		api.WriteLegacyError(w, http.StatusBadRequest, pact.CodeBadRequest, "Missing client_id or client_secret in Basic auth header")
		return
	}
	if !i.matches(clientID, secret) {
		i.logger.WarnContext(r.Context(), "token request with invalid credentials",
			"client_id", clientID, "request_id", GetRequestID(r.Context()))
		api.WriteLegacyError(w, http.StatusUnauthorized, pact.CodeAccessDenied, "Invalid credentials")
		return
	}

	token, err := i.Issue(clientID)
	if err != nil {
		api.WriteInternal(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	api.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(i.ttl.Seconds()),
	})
}

func (i *Issuer) matches(clientID, secret string) bool {
	idOK := subtle.ConstantTimeCompare([]byte(clientID), []byte(i.creds.ClientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(i.creds.ClientSecret)) == 1
	return idOK && secretOK
}

// parseBasic decodes a Basic authorization header. ok is false when the
// header is absent, not Basic, or not base64. A missing colon yields an
// empty secret.
func parseBasic(header string) (clientID, secret string, ok bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", false
	}
	clientID, secret, _ = strings.Cut(string(decoded), ":")
	return clientID, secret, true
}
