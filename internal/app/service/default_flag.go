package service

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// defaultFlagManager keeps exactly one default item per owner whenever the
// owner's collection is non-empty. Each mutation runs in one transaction that
// holds the owner's row lock, and the invariant is re-checked before commit.
type defaultFlagManager[T any, PT model.DefaultFlagged[T]] struct {
	db       *gorm.DB
	repo     repository.OwnedRepository[T, PT]
	label    string
	notFound *apperrors.Error
}

func newDefaultFlagManager[T any, PT model.DefaultFlagged[T]](
	db *gorm.DB,
	repo repository.OwnedRepository[T, PT],
	label string,
	notFound *apperrors.Error,
) *defaultFlagManager[T, PT] {
	return &defaultFlagManager[T, PT]{db: db, repo: repo, label: label, notFound: notFound}
}

func (m *defaultFlagManager[T, PT]) inOwnerTx(ctx context.Context, userID uint, fn func(repo repository.OwnedRepository[T, PT]) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := m.repo.WithTx(tx)
		if err := repo.LockOwner(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOwnerNotFound
			}
			return err
		}
		if err := fn(repo); err != nil {
			return err
		}
		return m.verifyDefaultInvariant(ctx, repo, userID)
	})
}

func (m *defaultFlagManager[T, PT]) verifyDefaultInvariant(ctx context.Context, repo repository.OwnedRepository[T, PT], userID uint) error {
	total, err := repo.CountByOwner(ctx, userID)
	if err != nil {
		return err
	}
	defaults, err := repo.CountDefaults(ctx, userID)
	if err != nil {
		return err
	}

	if (total == 0 && defaults == 0) || (total > 0 && defaults == 1) {
		return nil
	}

	logger.Error("Default invariant violated, rolling back", nil, logger.Fields{
		"entity":   m.label,
		"user_id":  userID,
		"total":    total,
		"defaults": defaults,
	})
	return ErrDefaultInvariant.Withf("%s default invariant violated: %d items with %d defaults", m.label, total, defaults)
}

func (m *defaultFlagManager[T, PT]) find(ctx context.Context, repo repository.OwnedRepository[T, PT], userID, id uint) (PT, error) {
	item, err := repo.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, m.notFound
		}
		return nil, err
	}
	return item, nil
}

// Create inserts item for userID. The first item of an owner is always the default.
func (m *defaultFlagManager[T, PT]) Create(ctx context.Context, userID uint, item PT, requestedDefault bool) error {
	return m.inOwnerTx(ctx, userID, func(repo repository.OwnedRepository[T, PT]) error {
		count, err := repo.CountByOwner(ctx, userID)
		if err != nil {
			return err
		}

		makeDefault := requestedDefault || count == 0
		if makeDefault && count > 0 {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}

		item.SetOwner(userID)
		item.SetDefaultFlag(makeDefault)
		return repo.Create(ctx, item)
	})
}

// Update applies changes to the item and then the requested default flag.
// A nil requestedDefault leaves the flag as it is. Clearing the flag on the
// current default hands it to the earliest other item; an only item stays default.
func (m *defaultFlagManager[T, PT]) Update(ctx context.Context, userID, id uint, apply func(item PT), requestedDefault *bool) (PT, error) {
	var updated PT
	err := m.inOwnerTx(ctx, userID, func(repo repository.OwnedRepository[T, PT]) error {
		item, err := m.find(ctx, repo, userID, id)
		if err != nil {
			return err
		}

		wasDefault := item.DefaultFlag()
		if apply != nil {
			apply(item)
		}
		item.SetOwner(userID)
		item.SetDefaultFlag(wasDefault)

		switch {
		case requestedDefault == nil || *requestedDefault == wasDefault:
			if err := repo.Save(ctx, item); err != nil {
				return err
			}

		case *requestedDefault:
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return err
			}
			item.SetDefaultFlag(true)
			if err := repo.Save(ctx, item); err != nil {
				return err
			}

		default:
			successor, err := repo.FindEarliest(ctx, userID, id)
			if err != nil {
				return err
			}
			if successor == nil {
				// sole item keeps the flag
				if err := repo.Save(ctx, item); err != nil {
					return err
				}
				break
			}
			item.SetDefaultFlag(false)
			if err := repo.Save(ctx, item); err != nil {
				return err
			}
			if err := repo.MarkDefault(ctx, successor.GetID()); err != nil {
				return err
			}
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the item; if it was the default, the earliest remaining item is promoted
func (m *defaultFlagManager[T, PT]) Delete(ctx context.Context, userID, id uint) error {
	return m.inOwnerTx(ctx, userID, func(repo repository.OwnedRepository[T, PT]) error {
		item, err := m.find(ctx, repo, userID, id)
		if err != nil {
			return err
		}

		if err := repo.Delete(ctx, item); err != nil {
			return err
		}
		if !item.DefaultFlag() {
			return nil
		}

		successor, err := repo.FindEarliest(ctx, userID, id)
		if err != nil {
			return err
		}
		if successor == nil {
			return nil
		}

		logger.Debug("Promoting default after delete", logger.Fields{
			"entity":      m.label,
			"user_id":     userID,
			"promoted_id": successor.GetID(),
		})
		return repo.MarkDefault(ctx, successor.GetID())
	})
}

func (m *defaultFlagManager[T, PT]) SetDefault(ctx context.Context, userID, id uint) error {
	return m.inOwnerTx(ctx, userID, func(repo repository.OwnedRepository[T, PT]) error {
		item, err := m.find(ctx, repo, userID, id)
		if err != nil {
			return err
		}
		if item.DefaultFlag() {
			return nil
		}
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		return repo.MarkDefault(ctx, id)
	})
}

// List returns the owner's items, default first, then by creation order
func (m *defaultFlagManager[T, PT]) List(ctx context.Context, userID uint) ([]T, error) {
	return m.repo.FindByOwner(ctx, userID)
}

func (m *defaultFlagManager[T, PT]) Default(ctx context.Context, userID uint) (PT, error) {
	item, err := m.repo.FindDefault(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, m.notFound
		}
		return nil, err
	}
	return item, nil
}
