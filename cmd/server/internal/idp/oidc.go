// Package idp 提供联合登录 (OIDC) 认证器
package idp

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

var (
	ErrConfigInvalid = errors.New("oidc config invalid")
	ErrAuthFailed    = errors.New("federated authentication failed")
)

// Config OIDC 配置
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// Enabled 配置是否完整可用
func (c Config) Enabled() bool {
	return c.IssuerURL != "" && c.ClientID != "" && c.ClientSecret != "" && c.RedirectURI != ""
}

// Identity 联合登录返回的用户身份
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Authenticator OIDC 认证器
type Authenticator struct {
	provider     *oidc.Provider
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

// NewAuthenticator 通过 OIDC discovery 创建认证器
func NewAuthenticator(ctx context.Context, cfg Config) (*Authenticator, error) {
	if !cfg.Enabled() {
		return nil, ErrConfigInvalid
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover OIDC provider: %w", err)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     provider.Endpoint(),
		Scopes:       cfg.Scopes,
	}
	if len(oauth2Config.Scopes) == 0 {
		oauth2Config.Scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	return &Authenticator{
		provider:     provider,
		oauth2Config: oauth2Config,
		verifier:     verifier,
	}, nil
}

// AuthorizationURL 生成授权跳转 URL
func (a *Authenticator) AuthorizationURL(state string) string {
	return a.oauth2Config.AuthCodeURL(state)
}

// Exchange 用授权码换 token 并验证 ID Token，返回用户身份
func (a *Authenticator) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := a.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %v", ErrAuthFailed, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("%w: no id_token in token response", ErrAuthFailed)
	}

	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: verify id_token: %v", ErrAuthFailed, err)
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %v", ErrAuthFailed, err)
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}

	return &Identity{
		Subject: idToken.Issuer + "|" + idToken.Subject,
		Email:   claims.Email,
		Name:    name,
	}, nil
}
