package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/lusale/gpms/core"
	"github.com/lusale/gpms/core/identity"
)

const jwtContextKey = "principalToken"

// Claims represents the authorization claims transmitted via a JWT. Tokens
// are minted by the external identity provider; this API only verifies them.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	}
}

// GetPrincipalClaims returns the claims the identity provider would mint for
// `p`; used by tests and tooling.
func GetPrincipalClaims(conf *core.Config, p identity.Principal) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   p.Email,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: p.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextPrincipal(ctx echo.Context) (identity.Principal, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok && claims.Email != "" {
			return identity.Principal{Email: claims.Email}, nil
		}
	}
	return identity.Principal{}, errUnauthorized
}

type authApi struct {
	hub *identity.Hub
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, hub *identity.Hub) {
	api := authApi{hub: hub}

	ag := g.Group("/auth", jwt)
	ag.POST("/logout", api.logout)
}

// logout broadcasts the sign-out to auth-state subscribers. Token discard is
// the client's concern; sign-out is never retried.
func (api *authApi) logout(ctx echo.Context) error {
	if _, err := getContextPrincipal(ctx); err != nil {
		return err
	}
	api.hub.SignOut()
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Signed out."})
}

type SuccessResponse struct {
	Success string `json:"success"`
}
