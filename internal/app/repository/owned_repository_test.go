package repository

import (
	"context"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOwnedTest(t *testing.T) (*gorm.DB, AddressRepository, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	user := &model.User{Email: "owner@example.com", Name: "Owner", Role: model.RoleUser}
	require.NoError(t, testDB.Create(user).Error)

	return testDB, NewAddressRepository(testDB), user
}

func newTestAddress(userID uint, name string, isDefault bool) *model.Address {
	return &model.Address{
		UserID:    userID,
		FullName:  name,
		Phone:     "0901234567",
		Address:   "12 Nguyen Trai",
		City:      "Hanoi",
		District:  "Thanh Xuan",
		Ward:      "Khuong Trung",
		IsDefault: isDefault,
	}
}

func TestOwnedRepository_CreateAndList(t *testing.T) {
	_, repo, user := setupOwnedTest(t)
	ctx := context.Background()

	first := newTestAddress(user.ID, "Home", true)
	second := newTestAddress(user.ID, "Office", false)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	list, err := repo.FindByOwner(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Home", list[0].FullName)
	assert.True(t, list[0].IsDefault)

	count, err := repo.CountByOwner(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	defaults, err := repo.CountDefaults(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), defaults)
}

func TestOwnedRepository_SingleDefaultIndex(t *testing.T) {
	_, repo, user := setupOwnedTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestAddress(user.ID, "Home", true)))
	err := repo.Create(ctx, newTestAddress(user.ID, "Office", true))
	assert.Error(t, err)
}

func TestOwnedRepository_FindByID_OtherOwner(t *testing.T) {
	testDB, repo, user := setupOwnedTest(t)
	ctx := context.Background()

	stranger := &model.User{Email: "stranger@example.com", Name: "Stranger", Role: model.RoleUser}
	require.NoError(t, testDB.Create(stranger).Error)

	address := newTestAddress(user.ID, "Home", true)
	require.NoError(t, repo.Create(ctx, address))

	_, err := repo.FindByID(ctx, stranger.ID, address.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindByID(ctx, user.ID, address.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home", found.FullName)
}

func TestOwnedRepository_ClearAndMarkDefault(t *testing.T) {
	_, repo, user := setupOwnedTest(t)
	ctx := context.Background()

	home := newTestAddress(user.ID, "Home", true)
	office := newTestAddress(user.ID, "Office", false)
	require.NoError(t, repo.Create(ctx, home))
	require.NoError(t, repo.Create(ctx, office))

	require.NoError(t, repo.ClearDefault(ctx, user.ID))
	_, err := repo.FindDefault(ctx, user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.MarkDefault(ctx, office.ID))
	current, err := repo.FindDefault(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, office.ID, current.ID)
}

func TestOwnedRepository_FindEarliest(t *testing.T) {
	_, repo, user := setupOwnedTest(t)
	ctx := context.Background()

	home := newTestAddress(user.ID, "Home", true)
	office := newTestAddress(user.ID, "Office", false)
	require.NoError(t, repo.Create(ctx, home))
	require.NoError(t, repo.Create(ctx, office))

	earliest, err := repo.FindEarliest(ctx, user.ID, home.ID)
	require.NoError(t, err)
	require.NotNil(t, earliest)
	assert.Equal(t, office.ID, earliest.ID)

	require.NoError(t, repo.Delete(ctx, office))
	earliest, err = repo.FindEarliest(ctx, user.ID, home.ID)
	require.NoError(t, err)
	assert.Nil(t, earliest)
}

func TestOwnedRepository_LockOwner(t *testing.T) {
	testDB, repo, user := setupOwnedTest(t)
	ctx := context.Background()

	err := testDB.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).LockOwner(ctx, user.ID)
	})
	assert.NoError(t, err)

	err = repo.LockOwner(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPaymentRepository_CardNumberNotSerialised(t *testing.T) {
	testDB, _, user := setupOwnedTest(t)
	ctx := context.Background()
	repo := NewPaymentRepository(testDB)

	payment := &model.Payment{
		UserID:     user.ID,
		Type:       model.PaymentTypeCreditCard,
		CardHolder: "NGUYEN VAN A",
		CardNumber: "4111111111111111",
		CardLast4:  "1111",
		CardExpiry: "12/29",
		IsDefault:  true,
	}
	require.NoError(t, repo.Create(ctx, payment))

	found, err := repo.FindDefault(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "4111111111111111", found.CardNumber)
	assert.Equal(t, "credit_card **** 1111", found.Summary())
}
