package auth

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/store"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LocalProvider keeps accounts in the application database with bcrypt hashes.
type LocalProvider struct {
	db   *gorm.DB
	cost int
}

func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{db: db, cost: bcrypt.DefaultCost}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (store.Session, error) {
	email = normalizeEmail(email)
	if err := validateSignUp(email, password); err != nil {
		return store.Session{}, err
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return store.Session{}, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return store.Session{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return store.Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{Email: email, PasswordHash: string(hash)}
	if err := p.db.WithContext(ctx).Create(&user).Error; err != nil {
		return store.Session{}, fmt.Errorf("failed to create user: %w", err)
	}

	return store.Session{UserID: user.ID, Email: user.Email}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (store.Session, error) {
	var user models.User
	err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.Session{}, ErrInvalidCredentials
		}
		return store.Session{}, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.Session{}, ErrInvalidCredentials
	}

	return store.Session{UserID: user.ID, Email: user.Email}, nil
}
