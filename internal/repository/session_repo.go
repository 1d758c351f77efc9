package repository

import (
	"context"
	"errors"
	"time"

	"timetrack-web/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type GormSessionRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormSessionRepository(db *gorm.DB, logger *logrus.Logger) (*GormSessionRepository, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	// Auto-migrate the sessions table
	if err := db.AutoMigrate(&models.Session{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate sessions table")
		return nil, err
	}

	logger.Debug("Session repository initialized")

	return &GormSessionRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormSessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" || session.AccessToken == "" {
		return errors.New("session id and access token are required")
	}

	result := r.db.WithContext(ctx).Create(session)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create session")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"user_id":    session.UserID,
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	}).Debug("Session created")

	return nil
}

// GetByID returns nil, nil when the session does not exist.
func (r *GormSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, nil
	}

	var session models.Session
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&session)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get session by ID")
		return nil, result.Error
	}

	return &session, nil
}

func (r *GormSessionRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_at":    expiresAt,
		})

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update session tokens")
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *GormSessionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete session")
		return result.Error
	}
	return nil
}

// DeleteExpired removes sessions whose access token expired before the
// given instant and returns how many rows were removed.
func (r *GormSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.Session{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete expired sessions")
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		r.logger.WithField("count", result.RowsAffected).Info("Expired sessions removed")
	}

	return result.RowsAffected, nil
}
