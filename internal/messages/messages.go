// Package messages stores contact-form submissions from the public site.
package messages

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"portfolio/internal/validation"
)

// ErrMessageNotFound is returned when a message lookup fails.
var ErrMessageNotFound = errors.New("message not found")

// Message is one contact-form submission.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null;index" json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `gorm:"not null" json:"body"`
	IP        string    `json:"ip"`
	Read      bool      `gorm:"column:is_read;index;not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// CreateMessageInput is the public contact form payload.
type CreateMessageInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"max=200"`
	Body    string `json:"message" validate:"required,max=5000"`
	IP      string `json:"-"`
}

// ListFilter selects a page of messages.
type ListFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// CreateMessage validates and stores a submission.
func CreateMessage(db *gorm.DB, logger *slog.Logger, input CreateMessageInput) (*Message, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Body = strings.TrimSpace(input.Body)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	msg := &Message{
		Name:    input.Name,
		Email:   input.Email,
		Subject: input.Subject,
		Body:    input.Body,
		IP:      input.IP,
	}
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(msg).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a newest-first page and the count matching the filter.
func ListMessages(db *gorm.DB, filter ListFilter) ([]Message, int64, error) {
	scope := func() *gorm.DB {
		q := db.Model(&Message{})
		if filter.UnreadOnly {
			q = q.Where("is_read = ?", false)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var msgs []Message
	if err := scope().Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&msgs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, total, nil
}

// MarkRead flags a message as read.
func MarkRead(db *gorm.DB, logger *slog.Logger, id uint) error {
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		res := tx.Model(&Message{}).Where("id = ?", id).Update("is_read", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrMessageNotFound
		}
		return nil
	})
}

// DeleteMessage removes a message.
func DeleteMessage(db *gorm.DB, logger *slog.Logger, id uint) error {
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&Message{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrMessageNotFound
		}
		return nil
	})
}

// CountMessages returns the number of stored messages.
func CountMessages(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Message{}).Count(&count).Error
	return count, err
}

// CountUnread returns the number of unread messages.
func CountUnread(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Message{}).Where("is_read = ?", false).Count(&count).Error
	return count, err
}
