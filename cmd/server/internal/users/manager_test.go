package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), []byte("test-secret"))
	require.NoError(t, err)
	return m
}

func TestSignUpAndSignIn(t *testing.T) {
	m := newTestManager(t)

	u, err := m.SignUp("Ann@Example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Empty(t, u.PasswordHash, "hash hidden from callers")

	// 重复注册
	_, err = m.SignUp("ann@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrEmailExists)

	// 登录成功
	signed, err := m.SignIn("ann@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, signed.ID)

	// 错误密码
	_, err = m.SignIn("ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// 不存在的账号
	_, err = m.SignIn("ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUp_Validation(t *testing.T) {
	m := newTestManager(t)

	_, err := m.SignUp("not-an-email", "hunter2hunter2")
	assert.Error(t, err)

	_, err = m.SignUp("ok@example.com", "short")
	assert.Error(t, err)
}

func TestTokenRoundtrip(t *testing.T) {
	m := newTestManager(t)
	u, err := m.SignUp("ann@example.com", "hunter2hunter2")
	require.NoError(t, err)

	token, err := m.GenerateToken(u.ID)
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Email, claims.Email)

	_, err = m.VerifyToken("garbage.token.here")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Expired(t *testing.T) {
	m := newTestManager(t)
	u, err := m.SignUp("ann@example.com", "hunter2hunter2")
	require.NoError(t, err)

	// 签发时间拨回到 TTL 之前
	m.now = func() time.Time { return time.Now().Add(-TokenTTL - time.Hour) }
	token, err := m.GenerateToken(u.ID)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUpdateProfile(t *testing.T) {
	m := newTestManager(t)
	u, err := m.SignUp("ann@example.com", "hunter2hunter2")
	require.NoError(t, err)

	updated, err := m.UpdateProfile(u.ID, Profile{
		Name:       "Ann Chaiya",
		Department: "QA",
		Language:   "th",
		Projects:   []string{"p1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann Chaiya", updated.Name)
	assert.Equal(t, "QA", updated.Department)
	assert.Equal(t, "th", updated.Language)

	// 校验失败
	_, err = m.UpdateProfile(u.ID, Profile{Name: "", Language: "en"})
	assert.Error(t, err)
	_, err = m.UpdateProfile(u.ID, Profile{Name: "Ann", Language: "fr"})
	assert.Error(t, err)
	_, err = m.UpdateProfile("missing", Profile{Name: "Ann", Language: "en"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureFederated(t *testing.T) {
	m := newTestManager(t)

	u, err := m.EnsureFederated("issuer|sub123", "ann@example.com", "Ann", "th")
	require.NoError(t, err)
	assert.Equal(t, "th", u.Language)

	// 同一 subject 返回既有账号
	again, err := m.EnsureFederated("issuer|sub123", "other@example.com", "Other", "en")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	_, err = m.EnsureFederated("", "x@example.com", "X", "en")
	assert.Error(t, err)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, []byte("test-secret"))
	require.NoError(t, err)
	u, err := m.SignUp("ann@example.com", "hunter2hunter2")
	require.NoError(t, err)

	reopened, err := NewManager(dir, []byte("test-secret"))
	require.NoError(t, err)
	got, ok := reopened.Get(u.ID)
	require.True(t, ok)
	assert.Equal(t, "ann@example.com", got.Email)

	// 重开后密码仍可验证
	_, err = reopened.SignIn("ann@example.com", "hunter2hunter2")
	assert.NoError(t, err)
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		header string
		expect string
	}{
		{"", "en"},
		{"th", "th"},
		{"th-TH,th;q=0.9,en;q=0.8", "th"},
		{"en-US,en;q=0.9", "en"},
		{"fr-FR,fr;q=0.9", "en"},
		{";;;", "en"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expect, MatchLanguage(tt.header), "header %q", tt.header)
	}
}
