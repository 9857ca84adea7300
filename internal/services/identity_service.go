package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/basicblog/gateway/internal/models"
	"github.com/basicblog/gateway/internal/types"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// argon2id parameters for credential hashes.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Session validation outcomes. Both are treated as anonymous by the
// gateway; they differ so callers can clear stale cookies precisely.
var (
	ErrSessionInvalid = errors.New("session token is invalid or revoked")
	ErrSessionExpired = errors.New("session token is expired")
)

// errBadCredentials is the single external authentication failure. Unknown
// users and wrong passwords are indistinguishable to callers.
var errBadCredentials = types.NewUnauthenticatedError("invalid username or password")

// dummyHash is verified against when the user does not exist, so failed
// lookups take the same time as failed password checks.
var dummyHash = mustHashPassword("gateway-dummy-credential")

// HashPassword derives an argon2id digest encoded as
// "argon2id$<salt b64>$<key b64>".
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("argon2id$%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// verifyPassword re-derives the key from the candidate password and
// compares in constant time.
func verifyPassword(encoded, password string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != "argon2id" {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

func mustHashPassword(password string) string {
	h, err := HashPassword(password)
	if err != nil {
		panic(err)
	}
	return h
}

// RegisterUser creates a new account with the given roles.
func RegisterUser(db *gorm.DB, username, password string, roles []string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, types.NewValidationError("username must not be empty")
	}
	if password == "" {
		return nil, types.NewValidationError("password must not be empty")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, types.NewValidationError("username '%s' is already taken", username)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:             uuid.NewString(),
		Username:       username,
		CredentialHash: hash,
		Roles:          datatypes.NewJSONSlice(roles),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies a username/password pair and returns the principal.
// The failure response never reveals whether the username exists.
func Authenticate(db *gorm.DB, username, password string) (*types.Principal, error) {
	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verifyPassword(dummyHash, password)
			return nil, errBadCredentials
		}
		return nil, err
	}

	if !verifyPassword(user.CredentialHash, password) {
		return nil, errBadCredentials
	}

	return &types.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    []string(user.Roles),
	}, nil
}

// CreateSession issues a new opaque session token with an explicit expiry.
// Tokens for the same user are independent: each is revocable on its own.
func CreateSession(db *gorm.DB, userID string, ttl time.Duration) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	session := models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.Create(&session).Error; err != nil {
		return "", err
	}
	return token, nil
}

// ValidateSession resolves a token to its principal. Expired and revoked
// tokens never become active again; revocation is visible immediately
// because every call reads the sessions table.
func ValidateSession(db *gorm.DB, token string) (*types.Principal, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	var session models.Session
	err := db.Where("token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	if session.RevokedAt != nil {
		return nil, ErrSessionInvalid
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	var user models.User
	if err := db.Where("id = ?", session.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	return &types.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    []string(user.Roles),
	}, nil
}

// RevokeSession invalidates a token. Revoking an already revoked or unknown
// token is a no-op.
func RevokeSession(db *gorm.DB, token string) error {
	now := time.Now()
	return db.Model(&models.Session{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Update("revoked_at", &now).Error
}

// EnsureAdminUser creates the bootstrap admin account when configured and
// not already present.
func EnsureAdminUser(db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := RegisterUser(db, username, password, []string{"admin"})
	return err
}
