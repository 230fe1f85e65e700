// Package cookie carries the session ID in a signed HttpOnly cookie.
package cookie

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"docstamp/internal/auth/models"
	dErrors "docstamp/pkg/domain-errors"
)

// Name is the session cookie name.
const Name = "docstamp_session"

const issuer = "docstamp"

// Claims is the signed cookie payload.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session cookies with HS256.
type Codec struct {
	signingKey []byte
	secure     bool
}

func NewCodec(signingKey string, secure bool) *Codec {
	return &Codec{signingKey: []byte(signingKey), secure: secure}
}

// Encode signs the session ID with the session's expiry.
func (c *Codec) Encode(sess *models.Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			Issuer:    issuer,
		},
	})
	return token.SignedString(c.signingKey)
}

// Decode verifies a cookie value and returns the session ID.
func (c *Codec) Decode(value string) (string, error) {
	parsed, err := jwt.ParseWithClaims(value, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.signingKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid session cookie")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid session cookie")
	}
	return claims.SessionID, nil
}

// Set writes the session cookie.
func (c *Codec) Set(w http.ResponseWriter, sess *models.Session) error {
	value, err := c.Encode(sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    value,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie on the client.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the verified session ID from r, or "" when absent or invalid.
func (c *Codec) Read(r *http.Request) string {
	ck, err := r.Cookie(Name)
	if err != nil || ck.Value == "" {
		return ""
	}
	sid, err := c.Decode(ck.Value)
	if err != nil {
		return ""
	}
	return sid
}
