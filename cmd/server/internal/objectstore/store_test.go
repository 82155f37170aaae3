package objectstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "/uploads/")
	require.NoError(t, err)

	url, err := store.Put("avatars/u1.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/u1.png", url)

	b, err := os.ReadFile(filepath.Join(dir, "avatars", "u1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), b)

	require.NoError(t, store.Delete("avatars/u1.png"))
	_, err = os.Stat(filepath.Join(dir, "avatars", "u1.png"))
	assert.True(t, os.IsNotExist(err))

	// 删除不存在的对象不是错误
	assert.NoError(t, store.Delete("avatars/u1.png"))
}

func TestPutAvatar_Limits(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	url, err := store.PutAvatar("u1", "image/png", []byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/u1.png", url)

	_, err = store.PutAvatar("u1", "image/gif", []byte("ok"))
	assert.ErrorIs(t, err, ErrBadContentType)

	_, err = store.PutAvatar("u1", "image/png", bytes.Repeat([]byte{0}, MaxAvatarBytes+1))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestPutDepartmentIcon_Limits(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	url, err := store.PutDepartmentIcon("d1", "image/svg+xml", []byte("<svg/>"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/departments/d1/icon.svg", url)

	_, err = store.PutDepartmentIcon("d1", "image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrBadContentType)

	_, err = store.PutDepartmentIcon("d1", "image/svg+xml", bytes.Repeat([]byte{0}, MaxIconBytes+1))
	assert.ErrorIs(t, err, ErrTooLarge)
}
