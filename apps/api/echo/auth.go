package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hogandenver05/Norse-Interview/core"
	"github.com/hogandenver05/Norse-Interview/core/user"
)

const (
	tokenContextKey = "userToken"
	contextUserKey  = "user"
	tokenAudience   = "Norse"
)

// Claims represents the authorization claims transmitted via a JWT.
// Subject holds the user's email. IsAdmin is informative only: the stored user record decides.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
}

// Auth issues and verifies the API bearer tokens.
type Auth struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
}

func NewAuth(conf *core.Config) *Auth {
	return &Auth{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
	}
}

// Middleware returns the JWT auth middleware.
func (a *Auth) Middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.jwtConfig)
}

func (a *Auth) UserClaims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   usr.Email,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         usr.Name,
		IsAdmin:      usr.IsAdmin,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (a *Auth) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *Auth) authenticate(ctx context.Context, email, pwd string, svc *user.Service) (*Claims, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	usr, err = svc.SetLastLogin(ctx, usr.Email)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return a.UserClaims(usr), nil
}

func (a *Auth) refreshToken(ctx echo.Context, svc *user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := getContextUser(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := a.GenerateToken(a.UserClaims(usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, core.ErrUnauthorized
}

// getContextUser loads the acting User from the store, once per request.
// A token whose user no longer exists is unauthorized.
func getContextUser(ctx echo.Context, svc *user.Service, clms ...Claims) (user.User, error) {
	usr, err := loadContextUser(ctx, svc, clms...)
	if errors.Cause(err) == user.ErrNotFound {
		return user.User{}, core.ErrUnauthorized
	}
	return usr, err
}

// loadContextUser is getContextUser, reporting user.ErrNotFound for a valid token whose user is gone.
func loadContextUser(ctx echo.Context, svc *user.Service, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByEmail(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}
