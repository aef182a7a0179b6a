package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Server defaults.
const (
	DefaultPort                 = "8080"
	DefaultJWTExpirationHours   = 24
	DefaultBcryptCost           = 12
	DefaultFreeTierRoutineLimit = 3
)

// ServerConfig holds the API server settings read from the environment.
type ServerConfig struct {
	Port        string
	DatabaseURL string
	// FreeTierRoutineLimit is how many routines a Free user may own.
	FreeTierRoutineLimit int
	Auth                 *AuthConfig
}

// AuthConfig covers id-token signing and password hashing.
type AuthConfig struct {
	JWT      *JWTConfig
	Password *PasswordConfig
}

// JWTConfig holds the id-token signing settings.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// PasswordConfig holds the bcrypt settings.
type PasswordConfig struct {
	BcryptCost int
	Pepper     string // optional global secret appended before hashing
}

// NewServerConfig reads PORT, DATABASE_URL, FREE_TIER_ROUTINE_LIMIT and the auth
// variables. DATABASE_URL and JWT_SECRET are required.
func NewServerConfig() (*ServerConfig, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}
	limit, err := envInt("FREE_TIER_ROUTINE_LIMIT", DefaultFreeTierRoutineLimit)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, fmt.Errorf("FREE_TIER_ROUTINE_LIMIT must be at least 1, got: %d", limit)
	}
	auth, err := NewAuthConfig()
	if err != nil {
		return nil, err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = DefaultPort
	}
	return &ServerConfig{
		Port:                 port,
		DatabaseURL:          dbURL,
		FreeTierRoutineLimit: limit,
		Auth:                 auth,
	}, nil
}

// NewAuthConfig reads JWT_SECRET, JWT_EXPIRATION_HOURS, BCRYPT_COST and
// PASSWORD_PEPPER.
func NewAuthConfig() (*AuthConfig, error) {
	jwtCfg, err := NewJWTConfig()
	if err != nil {
		return nil, err
	}
	pwCfg, err := NewPasswordConfig()
	if err != nil {
		return nil, err
	}
	return &AuthConfig{JWT: jwtCfg, Password: pwCfg}, nil
}

// NewJWTConfig reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default 24).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}
	hours, err := envInt("JWT_EXPIRATION_HOURS", DefaultJWTExpirationHours)
	if err != nil {
		return nil, err
	}
	cfg := &JWTConfig{Secret: secret, ExpirationHours: hours}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}

// TTL is the id-token lifetime.
func (c *JWTConfig) TTL() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// NewPasswordConfig reads BCRYPT_COST (10-14, default 12) and PASSWORD_PEPPER.
func NewPasswordConfig() (*PasswordConfig, error) {
	cost, err := envInt("BCRYPT_COST", DefaultBcryptCost)
	if err != nil {
		return nil, err
	}
	cfg := &PasswordConfig{BcryptCost: cost, Pepper: os.Getenv("PASSWORD_PEPPER")}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *PasswordConfig) normalize() error {
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	return nil
}

func (c *PasswordConfig) peppered(pw string) []byte {
	return []byte(pw + c.Pepper)
}

// HashPassword hashes pw with bcrypt.
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(c.peppered(pw), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether pw matches storedHash.
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), c.peppered(pw)) == nil
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}
