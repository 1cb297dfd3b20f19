package identity

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStore_FreshIdentityDefaults(t *testing.T) {
	st := openTestStore(t)

	ident := st.Identity()
	require.Equal(t, DefaultUserID, ident.UserID)
	require.Nil(t, ident.DialogID)
	require.Nil(t, ident.SessionStartedAt)
}

func TestStore_RoundTrip(t *testing.T) {
	st := openTestStore(t)

	start := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, st.SaveUser(7))
	require.NoError(t, st.SaveDialog(42))
	require.NoError(t, st.SaveSessionStart(start))

	ident := st.Identity()
	require.Equal(t, 7, ident.UserID)
	require.NotNil(t, ident.DialogID)
	require.Equal(t, 42, *ident.DialogID)
	require.NotNil(t, ident.SessionStartedAt)
	require.True(t, start.Equal(*ident.SessionStartedAt))
}

func TestStore_ClearSessionPreservesUser(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.SaveUser(7))
	require.NoError(t, st.SaveDialog(42))
	require.NoError(t, st.SaveSessionStart(time.Now()))

	require.NoError(t, st.ClearSession())

	ident := st.Identity()
	require.Equal(t, 7, ident.UserID)
	require.Nil(t, ident.DialogID)
	require.Nil(t, ident.SessionStartedAt)
}

func TestStore_ClearUserResetsToDefault(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.SaveUser(7))
	require.NoError(t, st.ClearUser())

	ident := st.Identity()
	require.Equal(t, DefaultUserID, ident.UserID)
}

func TestStore_SaveDialogOverwrites(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.SaveDialog(1))
	require.NoError(t, st.SaveDialog(2))

	ident := st.Identity()
	require.NotNil(t, ident.DialogID)
	require.Equal(t, 2, *ident.DialogID)
}

func TestStore_NoopTolerated(t *testing.T) {
	st := Noop()

	require.NoError(t, st.SaveUser(7))
	require.NoError(t, st.SaveDialog(42))
	require.NoError(t, st.SaveSessionStart(time.Now()))
	require.NoError(t, st.ClearSession())
	require.NoError(t, st.ClearUser())
	require.NoError(t, st.Close())

	ident := st.Identity()
	require.Equal(t, DefaultUserID, ident.UserID)
	require.Nil(t, ident.DialogID)
}
