package auth

import "droply/internal/domain/models"

// JWTVerifier verifies session tokens issued by the external identity provider.
// The middleware depends only on this interface, so tests can plug in a fake.
type JWTVerifier interface {
	// VerifyToken validates a JWT and returns its claims.
	// Any failure is reported as domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.IdentityClaims, error)

	// Close releases resources held by the verifier.
	Close() error
}
