package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"socialblog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session token constants.
const (
	SessionCookie = "session"
	TokenIssuer   = "socialblog"
	TokenAudience = "socialblog-web"
)

// Fiber locals populated by SessionAuth.Load.
const (
	LocalUserID      = "userID"
	LocalTokenID     = "tokenID"
	LocalTokenExpiry = "tokenExpiry"
)

// ErrTokenRevoked is returned for tokens whose jti was blacklisted at logout.
var ErrTokenRevoked = errors.New("token has been revoked")

// RevocationChecker reports whether the token id has been revoked.
type RevocationChecker func(ctx context.Context, jti string) bool

// SessionClaims is the validated content of a session token.
type SessionClaims struct {
	UserID    uint
	TokenID   string
	ExpiresAt time.Time
}

// SessionAuth issues and validates HMAC-signed session tokens. The same token
// is carried in the session cookie for pages and as a Bearer header for the API.
type SessionAuth struct {
	secret  []byte
	revoked RevocationChecker
}

// NewSessionAuth builds a SessionAuth. revoked may be nil.
func NewSessionAuth(secret string, revoked RevocationChecker) *SessionAuth {
	return &SessionAuth{secret: []byte(secret), revoked: revoked}
}

// IssueToken signs a token for userID valid for ttl.
func (a *SessionAuth) IssueToken(userID uint, ttl time.Duration) (string, SessionClaims, error) {
	now := time.Now()
	sc := SessionClaims{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(ttl),
	}
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(sc.ExpiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        sc.TokenID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", SessionClaims{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, sc, nil
}

// ParseToken validates signature, issuer, audience, expiry and subject.
func (a *SessionAuth) ParseToken(ctx context.Context, tokenString string) (*SessionClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	if claims.ID != "" && a.revoked != nil && a.revoked(ctx, claims.ID) {
		return nil, ErrTokenRevoked
	}

	return &SessionClaims{
		UserID:    uint(userID),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Load resolves the session from the Authorization header or the session
// cookie. Requests without a valid session continue anonymously.
func (a *SessionAuth) Load() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" {
			tokenString = c.Cookies(SessionCookie)
		}
		if tokenString == "" {
			return c.Next()
		}

		claims, err := a.ParseToken(c.UserContext(), tokenString)
		if err != nil {
			Logger.DebugContext(c.UserContext(), "ignoring invalid session token", "error", err.Error())
			return c.Next()
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalTokenID, claims.TokenID)
		c.Locals(LocalTokenExpiry, claims.ExpiresAt)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
		return c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CurrentUserID returns the session user, or (0, false) for anonymous requests.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}

// RequireLogin redirects anonymous page requests to loginPath?next=<original url>.
func RequireLogin(loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUserID(c); ok {
			return c.Next()
		}
		target := loginPath + "?next=" + url.QueryEscape(c.OriginalURL())
		return c.Redirect(target, fiber.StatusFound)
	}
}

// RequireAPIAuth rejects anonymous API requests with 401 JSON.
func RequireAPIAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUserID(c); ok {
			return c.Next()
		}
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
}
