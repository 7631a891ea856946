package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pharmapos/internal/auth/domain"
	"github.com/smallbiznis/pharmapos/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLookups(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}, &domain.Session{}))
	users, _ := New(conn)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, name := range []string{"Zed", "Ana"} {
		require.NoError(t, users.Create(ctx, &domain.User{
			ID:           snowflake.ID(10 + i),
			Name:         name,
			Email:        name + "@example.com",
			PasswordHash: "x",
			Role:         domain.RoleCashier,
			CreatedAt:    now,
			UpdatedAt:    now,
		}))
	}

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ana", list[0].Name)

	got, err := users.FindByEmail(ctx, "Zed@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 10, got.ID)

	_, err = users.FindByID(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSessionStamps(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}, &domain.Session{}))
	_, sessions := New(conn)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, sessions.CreateSession(ctx, &domain.Session{
		ID:               1,
		UserID:           10,
		SessionTokenHash: "abc",
		ExpiresAt:        now.Add(time.Hour),
		CreatedAt:        now,
		LastSeenAt:       now,
	}))

	later := now.Add(5 * time.Minute)
	require.NoError(t, sessions.UpdateLastSeen(ctx, 1, later))
	require.NoError(t, sessions.RevokeSession(ctx, 1, later))

	got, err := sessions.GetSessionByTokenHash(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, got.LastSeenAt.Equal(later))
	require.NotNil(t, got.RevokedAt)

	assert.ErrorIs(t, sessions.RevokeSession(ctx, 2, later), domain.ErrSessionNotFound)
	_, err = sessions.GetSessionByTokenHash(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
