package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type authenticator struct {
	config  middleware.JWTConfig
	issuer  string
	expires time.Duration
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		config: middleware.JWTConfig{
			SigningKey:    []byte(conf.DevServer.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    "userToken",
			Claims:        new(Claims),
		},
		issuer:  conf.AppName,
		expires: conf.DevServer.JWTExpirationDelta,
	}
}

func (a *authenticator) claims(prof user.Profile) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			Subject:   strconv.FormatInt(prof.ID, 10),
			ExpiresAt: now.Add(a.expires).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: prof.Email,
		Role:  prof.RoleName,
	}
}

// GenerateToken signs a token for the account.
func (a *authenticator) GenerateToken(prof user.Profile) (string, error) {
	method := jwt.GetSigningMethod(a.config.SigningMethod)
	token := jwt.NewWithClaims(method, a.claims(prof))

	ss, err := token.SignedString(a.config.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get("userToken").(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextUserID is the id of the authenticated caller.
func contextUserID(ctx echo.Context) (int64, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return 0, err
	}
	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, errUnauthorized
	}
	return uid, nil
}
