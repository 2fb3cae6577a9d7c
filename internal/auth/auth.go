// Package auth содержит хеширование паролей и выпуск JWT для администраторов
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hazadus/arabes/internal/data"
)

var (
	// ErrInvalidCredentials возвращается при неверном имени или пароле
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	// ErrInvalidToken возвращается для поврежденного или чужого токена
	ErrInvalidToken = errors.New("недействительный токен")
	// ErrExpiredToken возвращается для просроченного токена
	ErrExpiredToken = errors.New("срок действия токена истек")
	// ErrRevokedToken возвращается, если владелец токена удален
	ErrRevokedToken = errors.New("администратор токена удален")
	// ErrWeakPassword возвращается для слишком короткого пароля
	ErrWeakPassword = errors.New("пароль должен содержать не менее 6 символов")
	// ErrPasswordTooLong возвращается для пароля длиннее предела bcrypt
	ErrPasswordTooLong = errors.New("пароль не может быть длиннее 72 байт")
)

// Границы длины пароля. bcrypt не принимает больше 72 байт
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// Claims - полезная нагрузка токена
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// HashPassword возвращает bcrypt-хеш пароля
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return string(hash), nil
}

// CheckPassword сравнивает пароль с хешем
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Manager выпускает и проверяет токены
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создает менеджер токенов
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue подписывает токен HS256 для администратора
func (m *Manager) Issue(admin data.Admin) (string, error) {
	now := m.now()
	claims := Claims{
		Username: admin.Username,
		Role:     admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись и срок действия токена
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticator проверяет учетные данные по хранилищу администраторов
type Authenticator struct {
	store  *data.Store
	tokens *Manager
}

// NewAuthenticator создает проверку входа
func NewAuthenticator(store *data.Store, tokens *Manager) *Authenticator {
	return &Authenticator{store: store, tokens: tokens}
}

// Authenticate проверяет пароль и выпускает токен
func (a *Authenticator) Authenticate(username, password string) (string, data.Admin, error) {
	admin, err := a.store.AdminByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return "", data.Admin{}, ErrInvalidCredentials
		}
		return "", data.Admin{}, err
	}
	if !CheckPassword(admin.PasswordHash, password) {
		return "", data.Admin{}, ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(admin)
	if err != nil {
		return "", data.Admin{}, err
	}
	return token, admin, nil
}

// Verify проверяет токен и то, что его владелец все еще существует.
// Роль берется из хранилища, а не из токена
func (a *Authenticator) Verify(tokenString string) (*Claims, error) {
	claims, err := a.tokens.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	admin, err := a.store.AdminByID(claims.Subject)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrRevokedToken
		}
		return nil, err
	}
	claims.Username = admin.Username
	claims.Role = admin.Role
	return claims, nil
}
