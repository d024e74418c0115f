package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/complaintdesk-backend/internal/pkg/errors"
	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/repos"
	"github.com/yungbote/complaintdesk-backend/internal/requestdata"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

const minPasswordLength = 8

// JWTClaims carries the authenticated identity plus the role and hub scope
// so request handling does not hit the user table on every call. SessionID
// is the refresh-token row id and doubles as the SSE session id.
type JWTClaims struct {
	jwt.RegisteredClaims
	Role      types.Role `json:"role"`
	HubID     *uuid.UUID `json:"hub_id,omitempty"`
	SessionID uuid.UUID  `json:"sid"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, user *types.User) error
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Name = strings.TrimSpace(user.Name)

	if _, err := mail.ParseAddress(user.Email); err != nil {
		return fmt.Errorf("%w: invalid email", pkgerrors.ErrValidation)
	}
	if user.Name == "" {
		return fmt.Errorf("%w: name required", pkgerrors.ErrValidation)
	}
	if len(user.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", pkgerrors.ErrValidation, minPasswordLength)
	}
	if user.Role == "" {
		user.Role = types.RoleSubmitter
	}
	if !user.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", pkgerrors.ErrValidation, user.Role)
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, user.Email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: email already registered", pkgerrors.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hash)
	user.ID = uuid.New()

	if _, err := as.userRepo.Create(ctx, nil, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	as.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", "", fmt.Errorf("%w: email and password required", pkgerrors.ErrValidation)
	}

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", "", fmt.Errorf("%w: invalid credentials", pkgerrors.ErrPermissionDenied)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", fmt.Errorf("%w: invalid credentials", pkgerrors.ErrPermissionDenied)
	}

	var accessToken, refreshToken string
	err = runTx(ctx, as.db, func(tx *gorm.DB) error {
		if err := as.userTokenRepo.DeleteExpired(ctx, tx, time.Now()); err != nil {
			return fmt.Errorf("failed to prune expired tokens: %w", err)
		}
		userToken := &types.UserToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			Token:     uuid.New().String(),
			ExpiresAt: time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, userToken); err != nil {
			return fmt.Errorf("failed to create user token: %w", err)
		}
		tok, err := as.generateAccessToken(user, userToken.ID)
		if err != nil {
			return fmt.Errorf("failed to sign access token: %w", err)
		}
		accessToken = tok
		refreshToken = userToken.Token
		return nil
	})
	if err != nil {
		return "", "", err
	}
	as.log.Info("user logged in", "user_id", user.ID)
	return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context) (string, string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return "", "", fmt.Errorf("%w: missing refresh token", pkgerrors.ErrPermissionDenied)
	}

	var accessToken, refreshToken string
	err := runTx(ctx, as.db, func(tx *gorm.DB) error {
		existing, err := as.userTokenRepo.GetByToken(ctx, tx, rd.RefreshToken)
		if err != nil {
			return fmt.Errorf("%w: unknown refresh token", pkgerrors.ErrPermissionDenied)
		}
		if existing.ExpiresAt.Before(time.Now()) {
			_ = as.userTokenRepo.DeleteByID(ctx, tx, existing.ID)
			return fmt.Errorf("%w: refresh token expired", pkgerrors.ErrPermissionDenied)
		}
		user, err := as.userRepo.GetByID(ctx, tx, existing.UserID)
		if err != nil {
			return fmt.Errorf("failed to load user for refresh: %w", err)
		}

		// Rotate: same session id, fresh refresh secret and expiry.
		if err := as.userTokenRepo.DeleteByID(ctx, tx, existing.ID); err != nil {
			return fmt.Errorf("failed to remove old refresh token: %w", err)
		}
		rotated := &types.UserToken{
			ID:        existing.ID,
			UserID:    user.ID,
			Token:     uuid.New().String(),
			ExpiresAt: time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, rotated); err != nil {
			return fmt.Errorf("failed to create rotated token: %w", err)
		}
		tok, err := as.generateAccessToken(user, rotated.ID)
		if err != nil {
			return fmt.Errorf("failed to sign access token: %w", err)
		}
		accessToken = tok
		refreshToken = rotated.Token
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.SessionID == uuid.Nil {
		return fmt.Errorf("%w: no active session", pkgerrors.ErrPermissionDenied)
	}
	if err := as.userTokenRepo.DeleteByID(ctx, nil, rd.SessionID); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	as.log.Info("user logged out", "user_id", rd.UserID, "session_id", rd.SessionID)
	return nil
}

func (as *authService) generateAccessToken(user *types.User, sessionID uuid.UUID) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Role:      user.Role,
		HubID:     user.HubID,
		SessionID: sessionID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken validates the bearer token and attaches the request
// identity to the context. An empty token passes through untouched so public
// routes share the middleware.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", pkgerrors.ErrPermissionDenied, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("%w: invalid token", pkgerrors.ErrPermissionDenied)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: invalid subject", pkgerrors.ErrPermissionDenied)
	}

	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		rd = &requestdata.RequestData{}
		ctx = requestdata.WithRequestData(ctx, rd)
	}
	rd.TokenString = tokenString
	rd.UserID = userID
	rd.SessionID = claims.SessionID
	rd.Role = claims.Role
	rd.HubID = claims.HubID
	return ctx, nil
}
