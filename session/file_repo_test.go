package session_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-studio-client/apiclient"
	"github.com/jrsteele09/go-studio-client/notify"
	"github.com/jrsteele09/go-studio-client/session"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestFileTokenRepo_SetGetRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	repo := session.NewFileTokenRepo(fs, "/home/alice/.studio/tokens.json")

	v, err := repo.Get(session.AccessTokenKey)
	require.NoError(t, err)
	require.Empty(t, v)

	require.NoError(t, repo.Set(session.AccessTokenKey, "access-1"))
	require.NoError(t, repo.Set(session.RefreshTokenKey, "refresh-1"))

	info, err := fs.Stat(repo.Path())
	require.NoError(t, err)
	require.Equal(t, "-rw-------", info.Mode().Perm().String())

	v, err = repo.Get(session.RefreshTokenKey)
	require.NoError(t, err)
	require.Equal(t, "refresh-1", v)

	require.NoError(t, repo.Remove(session.AccessTokenKey))
	v, _ = repo.Get(session.AccessTokenKey)
	require.Empty(t, v)
	v, _ = repo.Get(session.RefreshTokenKey)
	require.Equal(t, "refresh-1", v)

	require.NoError(t, repo.Remove(session.AccessTokenKey, session.RefreshTokenKey))
	exists, err := afero.Exists(fs, repo.Path())
	require.NoError(t, err)
	require.False(t, exists)

	// absent keys are not an error
	require.NoError(t, repo.Remove(session.AccessTokenKey))
}

func TestFileTokenRepo_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tokens.json", []byte("{not json"), 0o600))
	repo := session.NewFileTokenRepo(fs, "/tokens.json")

	_, err := repo.Get(session.AccessTokenKey)
	require.Error(t, err)
}

func TestFileTokenRepo_TokensSurviveAcrossStores(t *testing.T) {
	f := newStoreFixture(t)
	f.loginAndOtpHandlers()
	f.handle("GET /auth/user", userHandler("access-1", alice))

	fs := afero.NewMemMapFs()
	api := apiclient.New(f.server.URL, notify.NewBroadcaster())
	ctx := context.Background()

	first := session.NewStore(api, session.NewFileTokenRepo(fs, "/data/tokens.json"))
	require.NoError(t, first.Start(ctx))
	_, err := first.Login(ctx, alice.Email, "secret1")
	require.NoError(t, err)
	require.NoError(t, first.VerifyOtp(ctx, alice.Email, "123456"))

	// a fresh process only has the token file, and must re-resolve the user
	second := session.NewStore(api, session.NewFileTokenRepo(fs, "/data/tokens.json"))
	require.True(t, second.IsLoading())
	require.NoError(t, second.Start(ctx))
	require.True(t, second.IsAuthenticated())
	require.Equal(t, 1, f.callCount("/auth/user"))

	second.Logout()
	third := session.NewStore(api, session.NewFileTokenRepo(fs, "/data/tokens.json"))
	require.NoError(t, third.Start(ctx))
	require.False(t, third.IsAuthenticated())
	require.Equal(t, 1, f.callCount("/auth/user"))
}
