package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/go_outdoor/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) SessionByJTI(ctx context.Context, jti string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// RotateSession revokes the session behind oldJTI and stores next in its place.
// The revoke is conditional, so only one of two concurrent rotations wins.
func (r *GormRepo) RotateSession(ctx context.Context, oldJTI string, now int64, next *models.Session) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("jti = ? AND revoked = ? AND expires_at > ?", oldJTI, false, now).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionInvalid
		}
		return tx.Create(next).Error
	})
}

func (r *GormRepo) RevokeSession(ctx context.Context, tokenHash string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Session{}).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}
