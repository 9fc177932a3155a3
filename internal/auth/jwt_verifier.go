package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"droply/internal/domain"
	"droply/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// allowedAlgorithms prevents algorithm confusion attacks (e.g. HS256 signed
// with a public key)
var allowedAlgorithms = []string{"RS256", "ES256"}

// VerifierOptions holds optional claim checks
type VerifierOptions struct {
	Issuer   string // enforced when non-empty
	Audience string // enforced when non-empty
}

// JWKSVerifier implements JWTVerifier using the identity provider's JWKS endpoint.
type JWKSVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from jwksURL.
// keyfunc caches the key set and refreshes it in the background until Close.
func NewJWTVerifier(jwksURL string, opts VerifierOptions, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	v := newVerifier(jwks.Keyfunc, opts, logger)
	v.cancel = cancel
	return v, nil
}

// newVerifier builds a verifier around any key function
func newVerifier(kf jwt.Keyfunc, opts VerifierOptions, logger *slog.Logger) *JWKSVerifier {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(allowedAlgorithms),
		jwt.WithExpirationRequired(),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}

	return &JWKSVerifier{
		keyfunc: kf,
		parser:  jwt.NewParser(parserOpts...),
		logger:  logger,
	}
}

// VerifyToken validates a JWT and extracts the identity claims.
func (v *JWKSVerifier) VerifyToken(tokenString string) (*models.IdentityClaims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &models.IdentityClaims{}, v.keyfunc)
	if err != nil {
		v.logger.Debug("token rejected", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok || !token.Valid {
		v.logger.Warn("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	// Providers that issue anonymous sessions mark them with role "anon"
	if claims.Role == "anon" {
		v.logger.Debug("anonymous token rejected", "user_id", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *JWKSVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	v.logger.Info("JWT verifier closed")
	return nil
}
