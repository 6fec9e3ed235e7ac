package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OwnedRepository persists a per-user collection that carries a default flag.
type OwnedRepository[T any, PT model.DefaultFlagged[T]] interface {
	WithTx(tx *gorm.DB) OwnedRepository[T, PT]
	LockOwner(ctx context.Context, userID uint) error
	Create(ctx context.Context, item PT) error
	Save(ctx context.Context, item PT) error
	Delete(ctx context.Context, item PT) error
	FindByID(ctx context.Context, userID, id uint) (PT, error)
	FindByOwner(ctx context.Context, userID uint) ([]T, error)
	FindDefault(ctx context.Context, userID uint) (PT, error)
	FindEarliest(ctx context.Context, userID, excludeID uint) (PT, error)
	CountByOwner(ctx context.Context, userID uint) (int64, error)
	CountDefaults(ctx context.Context, userID uint) (int64, error)
	ClearDefault(ctx context.Context, userID uint) error
	MarkDefault(ctx context.Context, id uint) error
}

type ownedRepository[T any, PT model.DefaultFlagged[T]] struct {
	db    *gorm.DB
	label string
}

func newOwnedRepository[T any, PT model.DefaultFlagged[T]](db *gorm.DB, label string) *ownedRepository[T, PT] {
	return &ownedRepository[T, PT]{db: db, label: label}
}

func (r *ownedRepository[T, PT]) WithTx(tx *gorm.DB) OwnedRepository[T, PT] {
	return &ownedRepository[T, PT]{db: tx, label: r.label}
}

// LockOwner takes a row lock on the owning user. Every default-flag mutation
// for that user queues behind it.
func (r *ownedRepository[T, PT]) LockOwner(ctx context.Context, userID uint) error {
	var user model.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&user, userID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to lock owner", err, logger.Fields{
			"user_id": userID,
			"entity":  r.label,
		})
	}
	return err
}

func (r *ownedRepository[T, PT]) Create(ctx context.Context, item PT) error {
	logger.Debug(fmt.Sprintf("Creating %s in database", r.label), logger.Fields{
		"user_id":    item.Owner(),
		"is_default": item.DefaultFlag(),
	})

	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		logger.Error(fmt.Sprintf("Failed to create %s in database", r.label), err, logger.Fields{
			"user_id": item.Owner(),
		})
		return err
	}

	logger.Debug(fmt.Sprintf("%s created in database", r.label), logger.Fields{
		"id":      item.GetID(),
		"user_id": item.Owner(),
	})
	return nil
}

func (r *ownedRepository[T, PT]) Save(ctx context.Context, item PT) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		logger.Error(fmt.Sprintf("Failed to update %s in database", r.label), err, logger.Fields{
			"id":      item.GetID(),
			"user_id": item.Owner(),
		})
		return err
	}
	return nil
}

func (r *ownedRepository[T, PT]) Delete(ctx context.Context, item PT) error {
	logger.Debug(fmt.Sprintf("Deleting %s from database", r.label), logger.Fields{
		"id":      item.GetID(),
		"user_id": item.Owner(),
	})

	if err := r.db.WithContext(ctx).Delete(item).Error; err != nil {
		logger.Error(fmt.Sprintf("Failed to delete %s from database", r.label), err, logger.Fields{
			"id": item.GetID(),
		})
		return err
	}
	return nil
}

// FindByID returns gorm.ErrRecordNotFound when id exists but belongs to someone else
func (r *ownedRepository[T, PT]) FindByID(ctx context.Context, userID, id uint) (PT, error) {
	var item T
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return PT(&item), nil
}

func (r *ownedRepository[T, PT]) FindByOwner(ctx context.Context, userID uint) ([]T, error) {
	logger.Debug(fmt.Sprintf("Finding %s list by user ID", r.label), logger.Fields{
		"user_id": userID,
	})

	var items []T
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to find %s list by user ID", r.label), err, logger.Fields{
			"user_id": userID,
		})
		return nil, err
	}
	return items, nil
}

func (r *ownedRepository[T, PT]) FindDefault(ctx context.Context, userID uint) (PT, error) {
	var item T
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return PT(&item), nil
}

// FindEarliest returns the oldest item of the owner other than excludeID, or nil if there is none
func (r *ownedRepository[T, PT]) FindEarliest(ctx context.Context, userID, excludeID uint) (PT, error) {
	var items []T
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id <> ?", userID, excludeID).
		Order("created_at ASC, id ASC").
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return PT(&items[0]), nil
}

func (r *ownedRepository[T, PT]) CountByOwner(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *ownedRepository[T, PT]) CountDefaults(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(new(T)).
		Where("user_id = ? AND is_default = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *ownedRepository[T, PT]) ClearDefault(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Model(new(T)).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to clear default %s", r.label), err, logger.Fields{
			"user_id": userID,
		})
	}
	return err
}

func (r *ownedRepository[T, PT]) MarkDefault(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(new(T)).
		Where("id = ?", id).
		Update("is_default", true).Error
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to mark default %s", r.label), err, logger.Fields{
			"id": id,
		})
	}
	return err
}
