package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/DevSymphony/sysop/internal/roles"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	sealer, err := GenerateSealer()
	require.NoError(t, err)
	s, err := OpenStore(filepath.Join(t.TempDir(), "users.db"), sealer, nil, WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := GenerateSealer()
	require.NoError(t, err)

	ct, err := s.Seal([]byte("секрет"))
	require.NoError(t, err)
	assert.NotContains(t, ct, "секрет")

	pt, err := s.Open(ct)
	require.NoError(t, err)
	assert.Equal(t, "секрет", string(pt))

	other, err := GenerateSealer()
	require.NoError(t, err)
	_, err = other.Open(ct)
	assert.Error(t, err)
}

func TestLoadOrCreateSealer_PersistsIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sysop", "secret.key")

	first, created, err := LoadOrCreateSealer(path)
	require.NoError(t, err)
	assert.True(t, created)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, created, err := LoadOrCreateSealer(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Recipient(), second.Recipient())

	ct, err := first.Seal([]byte("x"))
	require.NoError(t, err)
	pt, err := second.Open(ct)
	require.NoError(t, err)
	assert.Equal(t, "x", string(pt))
}

func TestStore_AddAndVerify(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.AddUser(ctx, "admin", "s3cret", roles.Admin, map[string]any{"info": "Default administrator account"}))
	require.NoError(t, s.AddUser(ctx, "op", "pw", roles.Operator, nil))

	role, err := s.Verify(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, roles.Admin, role)

	_, err = s.Verify(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Verify(ctx, "ghost", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = s.AddUser(ctx, "op", "other", roles.Admin, nil)
	assert.ErrorIs(t, err, ErrUserExists)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_ExtraIsSealed(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.AddUser(ctx, "admin", "pw", roles.Admin, map[string]any{"info": "root box"}))
	require.NoError(t, s.AddUser(ctx, "op", "pw", roles.Operator, nil))

	var raw string
	require.NoError(t, s.db.QueryRow(`SELECT encrypted_data FROM users WHERE username = 'admin'`).Scan(&raw))
	assert.NotContains(t, raw, "root box")

	extra, err := s.Extra(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"info": "root box"}, extra)

	extra, err = s.Extra(ctx, "op")
	require.NoError(t, err)
	assert.Nil(t, extra)

	_, err = s.Extra(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_ListPasswordDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.AddUser(ctx, "admin", "pw", roles.Admin, map[string]any{"k": "v"}))
	require.NoError(t, s.AddUser(ctx, "op", "pw", roles.Operator, nil))

	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].Username)
	assert.True(t, users[0].HasExtra)
	assert.Equal(t, roles.Operator, users[1].Role)
	assert.False(t, users[1].HasExtra)

	require.NoError(t, s.SetPassword(ctx, "op", "new"))
	_, err = s.Verify(ctx, "op", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Verify(ctx, "op", "new")
	assert.NoError(t, err)

	role, err := s.Role(ctx, "op")
	require.NoError(t, err)
	assert.Equal(t, roles.Operator, role)

	require.NoError(t, s.DeleteUser(ctx, "op"))
	assert.ErrorIs(t, s.DeleteUser(ctx, "op"), ErrUserNotFound)
	assert.ErrorIs(t, s.SetPassword(ctx, "op", "x"), ErrUserNotFound)
	_, err = s.Role(ctx, "op")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_RejectsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	assert.Error(t, s.AddUser(ctx, "  ", "pw", roles.Operator, nil))
	assert.Error(t, s.AddUser(ctx, "bob", "", roles.Operator, nil))
}

func TestSession_SealAndExpire(t *testing.T) {
	sealer, err := GenerateSealer()
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sess := NewSession("admin", now, 30*time.Minute)

	blob, err := SealSession(sealer, sess)
	require.NoError(t, err)

	got, err := OpenSession(sealer, blob, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)
	assert.True(t, got.ExpiresAt.Equal(now.Add(30*time.Minute)))

	_, err = OpenSession(sealer, blob, now.Add(31*time.Minute))
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = OpenSession(sealer, []byte("garbage"), now)
	assert.Error(t, err)
}
