package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/mgscheck/src/config"
	"github.com/username/mgscheck/src/security"
	"github.com/username/mgscheck/src/uuidcodec"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func withConfig(t *testing.T, cfg *config.AppConfig) {
	saved := config.Cfg
	t.Cleanup(func() { config.Cfg = saved })
	config.Cfg = cfg
}

func TestUUIDEncodeDecode(t *testing.T) {
	out, err := execute(t, "uuid", "encode", "63477062", "Brokerage", "ADP", "666666")
	require.NoError(t, err)
	token := strings.TrimSpace(out)

	a, err := uuidcodec.ParseAccountUUID(token)
	require.NoError(t, err)
	assert.Equal(t, "63477062", a.AccountID)
	assert.Equal(t, "Brokerage", a.AcctType)
	assert.Equal(t, uuidcodec.Placeholder, a.Symbol)

	out, err = execute(t, "uuid", "decode", token)
	require.NoError(t, err)
	assert.Contains(t, out, "accountId:          63477062")
	assert.Contains(t, out, "instNumber:         666666")
}

func TestUUIDEncode_Symbol(t *testing.T) {
	out, err := execute(t, "uuid", "encode", "55500011", "ESP", "OLINK", "666666", "--symbol", "ETFC")
	require.NoError(t, err)

	a, err := uuidcodec.ParseAccountUUID(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ETFC", a.Symbol)
	assert.True(t, a.IsStockPlan())
}

func TestUUIDArgs(t *testing.T) {
	_, err := execute(t, "uuid", "encode", "63477062")
	assert.Error(t, err)

	_, err = execute(t, "uuid", "decode", "%%%")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	secret := strings.Repeat("s", security.MinSecretLength)
	withConfig(t, &config.AppConfig{JWTSecret: secret, AccessTokenExpiry: time.Hour})

	out, err := execute(t, "token", "ci")
	require.NoError(t, err)

	auth, err := security.NewAuthService(secret, time.Hour)
	require.NoError(t, err)
	subject, err := auth.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ci", subject)
}

func TestToken_WeakSecret(t *testing.T) {
	withConfig(t, &config.AppConfig{JWTSecret: "short"})

	_, err := execute(t, "token", "ci")
	assert.ErrorIs(t, err, security.ErrWeakSecret)
}

func TestRun_UnknownService(t *testing.T) {
	_, err := execute(t, "run", "watchlist")
	assert.Error(t, err)
}

func TestCheck_RequiresFile(t *testing.T) {
	_, err := execute(t, "check", "homewidget")
	assert.Error(t, err)
}
