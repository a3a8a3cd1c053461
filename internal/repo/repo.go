package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrDuplicate      = errors.New("duplicate record")
	ErrSessionInvalid = errors.New("session expired or revoked")
)

type GormRepo struct {
	DB *gorm.DB
}

// Transaction runs fn against a repo bound to a single database transaction.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
