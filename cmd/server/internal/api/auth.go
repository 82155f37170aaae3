package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamplanhq/weekplan/cmd/server/internal/idp"
	"github.com/teamplanhq/weekplan/cmd/server/internal/users"
)

// generateState 生成 OIDC 登录防 CSRF state
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// sessionResponse 登录成功后的统一响应
func sessionResponse(c *gin.Context, manager *users.Manager, u *users.User) {
	token, err := manager.GenerateToken(u.ID)
	if err != nil {
		internalErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  u,
	})
}

// HandleSignUp POST /api/v1/auth/signup
// 邮箱密码注册，注册即登录
func HandleSignUp(manager *users.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}

		u, err := manager.SignUp(req.Email, req.Password)
		if err != nil {
			if errors.Is(err, users.ErrEmailExists) {
				errorResponse(c, http.StatusConflict, "email already registered")
			} else {
				badRequestResponse(c, err.Error())
			}
			return
		}

		sessionResponse(c, manager, u)
	}
}

// HandleSignIn POST /api/v1/auth/login
func HandleSignIn(manager *users.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}

		u, err := manager.SignIn(req.Email, req.Password)
		if err != nil {
			// 不区分"用户不存在"与"密码错误"
			errorResponse(c, http.StatusUnauthorized, "invalid credentials")
			return
		}

		sessionResponse(c, manager, u)
	}
}

// HandleOIDCLogin GET /api/v1/auth/oidc/login
// 生成 state 存入 cookie 后重定向到企业 IdP
func HandleOIDCLogin(auth *idp.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			errorResponse(c, http.StatusNotImplemented, "federated login is not configured")
			return
		}

		state, err := generateState()
		if err != nil {
			internalErrorResponse(c, err)
			return
		}

		// state cookie 有效期 5 分钟
		c.SetCookie("oidc_state", state, 300, "/", "", false, true)
		c.Redirect(http.StatusFound, auth.AuthorizationURL(state))
	}
}

// HandleOIDCCallback GET /api/v1/auth/oidc/callback
// 校验 state、用授权码换取身份，按 subject 自动开通账号
func HandleOIDCCallback(auth *idp.Authenticator, manager *users.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			errorResponse(c, http.StatusNotImplemented, "federated login is not configured")
			return
		}

		code := c.Query("code")
		if code == "" {
			errorDesc := c.Query("error_description")
			if errorDesc == "" {
				errorDesc = c.Query("error")
			}
			badRequestResponse(c, "authorization failed: "+errorDesc)
			return
		}

		stateCookie, err := c.Cookie("oidc_state")
		if err != nil {
			badRequestResponse(c, "state cookie not found")
			return
		}
		if stateCookie != c.Query("state") {
			badRequestResponse(c, "state mismatch")
			return
		}
		c.SetCookie("oidc_state", "", -1, "/", "", false, true)

		identity, err := auth.Exchange(c.Request.Context(), code)
		if err != nil {
			errorResponse(c, http.StatusUnauthorized, "authentication failed")
			return
		}

		lang := users.MatchLanguage(c.GetHeader("Accept-Language"))
		u, err := manager.EnsureFederated(identity.Subject, identity.Email, identity.Name, lang)
		if err != nil {
			internalErrorResponse(c, err)
			return
		}

		sessionResponse(c, manager, u)
	}
}

// HandleMe GET /api/v1/me
// 返回当前登录用户档案
func HandleMe(manager *users.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := manager.Get(currentUserID(c))
		if !ok {
			notFoundResponse(c, "user")
			return
		}
		successResponse(c, u)
	}
}
