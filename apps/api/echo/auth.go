package echoapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/darasahq/darasa/core"
)

const (
	RolePrincipal = "principal"
	RoleStaff     = "staff"

	jwtContextKey = "authToken"
)

// Claims represents the authorization claims transmitted via a JWT.
// The dashboard has two shared accounts, so the role IS the identity.
type Claims struct {
	jwt.StandardClaims
	Role        string `json:"role"`
	IsPrincipal bool   `json:"is_principal,omitempty"`
}

func newAppJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	}
}

func GetRoleClaims(conf *core.Config, role string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   role,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role:        role,
		IsPrincipal: role == RolePrincipal,
	}
}

// authenticate checks the shared password for a role. Config may hold the
// password as a bcrypt hash (admin hashpassword output) or as plaintext for
// local setups.
func authenticate(conf *core.Config, role, pwd string) (*Claims, error) {
	var want string
	switch role {
	case RolePrincipal:
		want = conf.PrincipalPassword
	case RoleStaff:
		want = conf.StaffPassword
	default:
		return nil, errAuthenticationFailed
	}
	if want == "" {
		return nil, errAuthenticationFailed
	}

	if strings.HasPrefix(want, "$2") {
		if err := bcrypt.CompareHashAndPassword([]byte(want), []byte(pwd)); err != nil {
			return nil, errAuthenticationFailed
		}
	} else if subtle.ConstantTimeCompare([]byte(want), []byte(pwd)) != 1 {
		return nil, errAuthenticationFailed
	}
	return GetRoleClaims(conf, role), nil
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(cfg middleware.JWTConfig, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(cfg.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// principalMiddleware guards mutating endpoints to the principal account.
func principalMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsPrincipal {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

type authApi struct {
	conf *core.Config
	jwt  middleware.JWTConfig
}

func registerAuthAPI(g *echo.Group, cfg middleware.JWTConfig, conf *core.Config) {
	api := authApi{conf: conf, jwt: cfg}
	g.POST("/login", api.login)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	claims, err := authenticate(api.conf, data.Role, data.Password)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.jwt, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}
