package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core"
	"github.com/arnalearn/arna/core/user"
)

const (
	contextPrincipalKey = "principal"
	bearerPrefix        = "Bearer "
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	Role      string `json:"role"`
	ManagerID int    `json:"managerId"` // 0 if none
}

func GetUserClaims(usr user.User, conf *core.Config) *Claims {
	now := time.Now()
	var managerID int
	if usr.ManagerID != nil {
		managerID = *usr.ManagerID
	}
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.Server.JWTIssuer,
			Subject:   strconv.Itoa(usr.ID),
			Audience:  jwt.ClaimStrings{conf.Server.JWTAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Server.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username:  usr.Username,
		Role:      usr.RoleID.String(),
		ManagerID: managerID,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken verifies the signature, lifetime, issuer and audience of a token.
func ParseToken(tokenStr string, conf *core.Config) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, new(Claims), func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !claims.VerifyIssuer(conf.Server.JWTIssuer, true) || !claims.VerifyAudience(conf.Server.JWTAudience, true) {
		return nil, errors.New("invalid issuer or audience")
	}
	return claims, nil
}

func (c Claims) Principal() (user.Principal, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil {
		return user.Principal{}, errors.Wrap(err, "parsing subject")
	}
	role := user.RoleFromName(c.Role)
	if !role.IsValid() {
		return user.Principal{}, errors.Errorf("unknown role %q", c.Role)
	}
	return user.Principal{ID: id, Username: c.Username, Role: role, ManagerID: c.ManagerID}, nil
}

// jwtMiddleware verifies the bearer token and stores the caller's user.Principal in the request context.
func jwtMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if len(auth) <= len(bearerPrefix) || !strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
				return errMissingToken
			}
			claims, err := ParseToken(auth[len(bearerPrefix):], conf)
			if err != nil {
				return errInvalidToken
			}
			principal, err := claims.Principal()
			if err != nil {
				return errInvalidToken
			}
			ctx.Set(contextPrincipalKey, principal)
			return next(ctx)
		}
	}
}

func getPrincipal(ctx echo.Context) (user.Principal, error) {
	if p, ok := ctx.Get(contextPrincipalKey).(user.Principal); ok {
		return p, nil
	}
	return user.Principal{}, errUnauthorized
}

func authenticate(ctx echo.Context, svc *user.Service, conf *core.Config, uname, pwd string) (string, user.User, error) {
	usr, err := svc.Authenticate(ctx.Request().Context(), uname, pwd)
	if err != nil {
		return "", user.User{}, err
	}
	token, err := GenerateToken(GetUserClaims(usr, conf), conf.SecretKey)
	if err != nil {
		return "", user.User{}, errors.Wrap(err, "generating token")
	}
	return token, usr, nil
}
