package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand" // secure random generation for reset tokens
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its
// expiry. The Token field contains the JWT string. Exp stores the
// expiration timestamp. Tokens are sent in the Authorization header
// when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims carried by an access token: the user id (subject), the email
// and the role at issuance time. The middleware re-fetches the user on
// every request, so a deactivated account invalidates every
// outstanding token without a revocation list.
type Claims struct {
	UserID uint64
	Email  string
	Role   string
}

// Token verification failure classes. ErrTokenExpired means the token
// was well-formed and correctly signed but past its validity window;
// ErrTokenInvalid covers everything else (malformed, bad signature,
// wrong algorithm). Both map to an unauthenticated state.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// NewAccessToken builds and signs an HS256 JWT for a user. The token
// carries sub (user ID), email, role, exp and iat. ttlDays controls
// the validity window (7 days by default at the config layer).
func NewAccessToken(secret string, cl Claims, ttlDays int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":   cl.UserID,
		"email": cl.Email,
		"role":  cl.Role,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and validity window of a
// token string and extracts its claims. Expiry is reported as
// ErrTokenExpired so callers can distinguish it from tampering.
func ParseAccessToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}

	var cl Claims
	// Numeric JWT values decode as float64.
	if sub, ok := mc["sub"].(float64); ok {
		cl.UserID = uint64(sub)
	}
	if cl.UserID == 0 {
		return Claims{}, ErrTokenInvalid
	}
	cl.Email, _ = mc["email"].(string)
	cl.Role, _ = mc["role"].(string)
	return cl, nil
}

// RandomToken returns a hex-encoded string generated from n bytes of
// cryptographically secure random data. Used for password-reset
// tokens.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
