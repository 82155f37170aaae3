package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamplanhq/weekplan/cmd/server/internal/audit"
	"github.com/teamplanhq/weekplan/cmd/server/internal/directory"
	"github.com/teamplanhq/weekplan/cmd/server/internal/objectstore"
	"github.com/teamplanhq/weekplan/cmd/server/internal/users"
)

// readUpload 读取 multipart 表单里的 file 字段，限制读取上限
func readUpload(c *gin.Context, limit int64) (data []byte, contentType string, err error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, "", errors.New("file field is required")
	}
	if header.Size > limit {
		return nil, "", objectstore.ErrTooLarge
	}

	var f multipart.File
	f, err = header.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	// +1 捕获 header.Size 被伪造的情况
	data, err = io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > limit {
		return nil, "", objectstore.ErrTooLarge
	}
	return data, header.Header.Get("Content-Type"), nil
}

func uploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, objectstore.ErrTooLarge):
		errorResponse(c, http.StatusRequestEntityTooLarge, "file too large")
	case errors.Is(err, objectstore.ErrBadContentType):
		errorResponse(c, http.StatusUnsupportedMediaType, "unsupported content type")
	default:
		badRequestResponse(c, err.Error())
	}
}

// HandleUploadAvatar POST /api/v1/me/avatar
// 上传头像并更新档案里的头像地址
func HandleUploadAvatar(store *objectstore.Store, manager *users.Manager, auditLog audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentUserID(c)

		data, contentType, err := readUpload(c, objectstore.MaxAvatarBytes)
		if err != nil {
			uploadError(c, err)
			return
		}

		url, err := store.PutAvatar(userID, contentType, data)
		if err != nil {
			uploadError(c, err)
			return
		}

		u, err := manager.SetAvatarURL(userID, url)
		if err != nil {
			internalErrorResponse(c, err)
			return
		}

		_ = auditLog.LogActionSimple(userID, audit.ActionUploadObject, url, "avatar")
		successResponse(c, u)
	}
}

// HandleUploadDepartmentIcon POST /api/v1/departments/:id/icon
// 仅接受 SVG，上传后写回部门的 iconURL
func HandleUploadDepartmentIcon(store *objectstore.Store, dir *directory.Store, auditLog audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := dir.GetDepartment(id); err != nil {
			directoryError(c, err)
			return
		}

		data, contentType, err := readUpload(c, objectstore.MaxIconBytes)
		if err != nil {
			uploadError(c, err)
			return
		}

		url, err := store.PutDepartmentIcon(id, contentType, data)
		if err != nil {
			uploadError(c, err)
			return
		}

		dept, err := dir.UpdateDepartment(id, directory.DepartmentUpdate{IconURL: &url})
		if err != nil {
			directoryError(c, err)
			return
		}

		_ = auditLog.LogActionSimple(currentUserID(c), audit.ActionUploadObject, url, "department icon")
		successResponse(c, dept)
	}
}
