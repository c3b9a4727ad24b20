package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type AuthConfig struct {
	// HMACSecret verifies HS256 tokens.
	HMACSecret string
	// PublicKeyPEM verifies RS256 tokens; either key may be set.
	PublicKeyPEM string
	Issuer       string
	Leeway       time.Duration
}

type AuthService interface {
	// Authenticate verifies a bearer token and returns the caller it names.
	Authenticate(ctx context.Context, token string) (*ctxutil.Caller, error)
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role     string `json:"role,omitempty"`
	Metadata struct {
		Role string `json:"role,omitempty"`
	} `json:"metadata,omitempty"`
}

type authService struct {
	log     *logger.Logger
	hmacKey []byte
	rsaKey  any
	parser  *jwt.Parser
}

func NewAuthService(log *logger.Logger, cfg AuthConfig) (AuthService, error) {
	s := &authService{log: log.With("service", "AuthService")}
	methods := []string{}
	if secret := strings.TrimSpace(cfg.HMACSecret); secret != "" {
		s.hmacKey = []byte(secret)
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if pem := strings.TrimSpace(cfg.PublicKeyPEM); pem != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, err
		}
		s.rsaKey = key
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	if len(methods) == 0 {
		return nil, errors.New("auth: AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEY is required")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if iss := strings.TrimSpace(cfg.Issuer); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}
	s.parser = jwt.NewParser(opts...)
	return s, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*ctxutil.Caller, error) {
	const op = "Auth.Authenticate"
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errAuthentication(op, errors.New("missing token"))
	}
	var claims sessionClaims
	_, err := s.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		switch t.Method.Alg() {
		case jwt.SigningMethodHS256.Alg():
			return s.hmacKey, nil
		case jwt.SigningMethodRS256.Alg():
			return s.rsaKey, nil
		}
		return nil, jwt.ErrTokenUnverifiable
	})
	if err != nil {
		s.log.Debug("token rejected", "error", err)
		return nil, errAuthentication(op, err)
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return nil, errAuthentication(op, errors.New("token has no subject"))
	}
	role := firstNonEmpty(claims.Role, claims.Metadata.Role)
	return &ctxutil.Caller{UserID: sub, Role: types.NormalizeRole(strings.ToLower(role))}, nil
}
