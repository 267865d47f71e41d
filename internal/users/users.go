package users

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/karloscodes/cartridge/crypto"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// User is the portfolio owner. The admin panel has a single account.
type User struct {
	ID                uint   `gorm:"primaryKey"`
	Email             string `gorm:"uniqueIndex"`
	EncryptedPassword string
	LastLoginAt       *time.Time
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// ErrUserExists is returned when attempting to create a user that already exists.
var ErrUserExists = errors.New("user already exists")

// ErrUserNotFound is returned when a user lookup fails.
var ErrUserNotFound = gorm.ErrRecordNotFound

// ErrInvalidCredentials is returned by Authenticate for any failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// MinPasswordLength is enforced when setting a password.
const MinPasswordLength = 8

// ErrPasswordTooShort is returned for passwords under MinPasswordLength.
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// dummyHash is verified against when no admin exists so a failed login takes
// the same time either way.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// FindByEmail retrieves a user by email.
func FindByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID retrieves a user by ID.
func FindByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAdmin returns the admin account, the oldest user row.
func FindAdmin(db *gorm.DB) (*User, error) {
	var user User
	if err := db.Order("id ASC").First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate checks password against the admin account and records the login.
func Authenticate(db *gorm.DB, logger *slog.Logger, password string) (*User, error) {
	user, err := FindAdmin(db)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		crypto.VerifyPassword(dummyHash, password)
		return nil, ErrInvalidCredentials
	}

	if !crypto.VerifyPassword(user.EncryptedPassword, password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(user).Update("last_login_at", now).Error
	})
	if err != nil {
		logger.Warn("Failed to record login time", slog.Any("error", err))
	} else {
		user.LastLoginAt = &now
	}
	return user, nil
}

func validatePassword(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// CreateAdminUser creates a new admin user with the supplied credentials. It returns ErrUserExists if an admin already exists.
func CreateAdminUser(dbConn *gorm.DB, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email cannot be empty")
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	if _, err := FindAdmin(dbConn); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return err
	}

	newUser := User{
		Email:             email,
		EncryptedPassword: string(hashedPassword),
	}

	logger := slog.Default()
	return sqlite.PerformWrite(logger, dbConn, func(tx *gorm.DB) error {
		return tx.Create(&newUser).Error
	})
}

// ChangePassword updates a user's password given their email.
func ChangePassword(dbConn *gorm.DB, email, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	user, err := FindByEmail(dbConn, email)
	if err != nil {
		return err
	}

	return setPassword(dbConn, user, password)
}

// UpdatePassword changes the admin's password after checking the current one.
func UpdatePassword(dbConn *gorm.DB, userID uint, current, password string) error {
	user, err := FindByID(dbConn, userID)
	if err != nil {
		return err
	}
	if !crypto.VerifyPassword(user.EncryptedPassword, current) {
		return ErrInvalidCredentials
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	return setPassword(dbConn, user, password)
}

func setPassword(dbConn *gorm.DB, user *User, password string) error {
	hashedPassword, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return err
	}

	logger := slog.Default()
	return sqlite.PerformWrite(logger, dbConn, func(tx *gorm.DB) error {
		return tx.Model(user).Update("encrypted_password", string(hashedPassword)).Error
	})
}
