package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/go_outdoor/internal/models"
)

func (r *GormRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	taken, err := r.EmailTaken(ctx, u.Email)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicate
	}
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *GormRepo) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UserByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expires > ?", token, now).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_verified":       true,
			"verification_code": nil,
			"code_expires_at":   nil,
		}).Error
}

func (r *GormRepo) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reset_password_token":   token,
			"reset_password_expires": expires,
		}).Error
}

// ResetPassword stores the new hash, clears the reset token and revokes every
// session of the user.
func (r *GormRepo) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.User{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"password":               passwordHash,
				"reset_password_token":   nil,
				"reset_password_expires": nil,
			}).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.Session{}).
			Where("user_id = ? AND revoked = ?", id, false).
			Update("revoked", true).Error
	})
}

func (r *GormRepo) LinkGoogle(ctx context.Context, id uuid.UUID, googleID string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"google_id":   googleID,
			"is_verified": true,
		}).Error
}
