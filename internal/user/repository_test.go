package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	userModel "terminal-terrace/video-lead/internal/model/user"
	"terminal-terrace/video-lead/internal/testutils"
)

func TestUserRepository(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	existing := testutils.CreateTestUser(db, testutils.WithEmail("taken@example.com"))

	found, err := repo.FindByEmail(ctx, "taken@example.com")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, found.ID)
	assert.Equal(t, userModel.RoleUser, found.Role)

	byID, err := repo.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "taken@example.com", byID.Email)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(1))

	n, err := repo.Delete(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewUserRepository(db)

	testutils.CreateTestUser(db, testutils.WithEmail("dup@example.com"))

	err := repo.Create(context.Background(), &userModel.User{
		Email:        "dup@example.com",
		Name:         "Dup",
		PasswordHash: "x",
		Role:         userModel.RoleUser,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}
