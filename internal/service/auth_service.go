package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storyweave/internal/models"
	"storyweave/internal/repository"
)

const tokenIssuer = "storyweave-api"

// ErrInvalidToken - токен не прошел проверку подписи или срока.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims - полезная нагрузка access-токена. Subject - email пользователя.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// AuthService регистрирует родителей и выдает HS256 JWT.
type AuthService struct {
	users     repository.UserRepository
	jwtSecret []byte
	pepper    string
	tokenTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthService(users repository.UserRepository, jwtSecret, pepper string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		pepper:    pepper,
		tokenTTL:  tokenTTL,
		logger:    logger.Named("AuthService"),
		now:       time.Now,
	}
}

// Signup создает учетную запись и сразу выдает токен.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*models.AuthResult, error) {
	email = normalizeEmail(email)
	name = SanitizeInput(name, 100)
	log := s.logger.With(zap.String("email", email))

	if err := ValidateEmail(email); err != nil {
		log.Warn("Signup attempt with invalid email")
		return nil, err
	}
	if password == "" {
		log.Warn("Signup attempt with empty password")
		return nil, models.NewValidationError("Password is required")
	}

	hash, err := hashPassword(password, s.pepper)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrUserAlreadyExists) {
			log.Warn("Signup attempt for existing email")
			return nil, err
		}
		log.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("User registered")
	return s.issueToken(user)
}

// Login проверяет пароль. Неизвестный email и неверный пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	email = normalizeEmail(email)
	log := s.logger.With(zap.String("email", email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Warn("Login failed: user not found")
			return nil, models.ErrInvalidCredentials
		}
		log.Error("Login failed: error getting user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !checkPasswordHash(password, user.PasswordHash, s.pepper) {
		log.Warn("Login failed: invalid password")
		return nil, models.ErrInvalidCredentials
	}

	log.Info("User logged in")
	return s.issueToken(user)
}

// GetUser возвращает пользователя по email. Хеш пароля не сериализуется.
func (s *AuthService) GetUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// VerifyToken разбирает access-токен и возвращает claims.
func (s *AuthService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		s.logger.Debug("Token verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) issueToken(user *models.User) (*models.AuthResult, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &Claims{
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Email,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.String("email", user.Email), zap.Error(err))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	return &models.AuthResult{User: user, AccessToken: signed, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// applyPepper применяет HMAC-SHA256 с перцем в качестве ключа.
func applyPepper(password, pepper string) []byte {
	h := hmac.New(sha256.New, []byte(pepper))
	h.Write([]byte(password))
	return h.Sum(nil)
}

func hashPassword(password, pepper string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(applyPepper(password, pepper), bcrypt.DefaultCost)
	return string(hash), err
}

func checkPasswordHash(password, hash, pepper string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), applyPepper(password, pepper)) == nil
}
