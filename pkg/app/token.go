package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// 默认 Token 签发者
const DefaultTokenIssuer = "bento-note-sync"

// ContextKeyRelayClaims gin context key of the verified relay caller
const ContextKeyRelayClaims = "relay_token"

// TokenConfig 定义中继 Token 管理器的配置
type TokenConfig struct {
	SecretKey string        `yaml:"secret-key"` // JWT 签名密钥
	Expiry    time.Duration `yaml:"expiry"`     // Token 过期时间，默认 1 小时
	Issuer    string        `yaml:"issuer"`     // Token 签发者
}

// TokenManager issues and checks the HS256 tokens that authorize relay calls.
// TokenManager 中继请求的 Token 管理接口
type TokenManager interface {
	Generate(installationID string) (string, error)
	Parse(token string) (*RelayClaims, error)
	Validate(token string) error
}

// tokenManager 实现 TokenManager 接口
type tokenManager struct {
	config TokenConfig
}

// NewTokenManager 创建一个新的 TokenManager 实例
func NewTokenManager(cfg TokenConfig) TokenManager {
	if cfg.Expiry == 0 {
		cfg.Expiry = time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	return &tokenManager{config: cfg}
}

// RelayClaims identifies the installation allowed to use the relay.
type RelayClaims struct {
	InstallationID string `json:"iid"`
	jwt.RegisteredClaims
}

// Generate 生成一个新的 JWT Token
func (t *tokenManager) Generate(installationID string) (string, error) {
	now := time.Now()
	claims := &RelayClaims{
		InstallationID: installationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			Issuer:    t.config.Issuer,
			Subject:   "relay-token",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.config.SecretKey))
}

// Parse 解析 JWT Token
func (t *tokenManager) Parse(token string) (*RelayClaims, error) {
	claims := &RelayClaims{}

	parsedToken, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.config.SecretKey), nil
	}, jwt.WithIssuer(t.config.Issuer))

	if err != nil {
		return nil, err
	}

	if !parsedToken.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// Validate 验证 Token 是否有效
func (t *tokenManager) Validate(token string) error {
	_, err := t.Parse(token)
	return err
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// GetRelayClaims returns the claims stored by the relay auth middleware.
func GetRelayClaims(ctx *gin.Context) *RelayClaims {
	v, ok := ctx.Get(ContextKeyRelayClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*RelayClaims)
	return claims
}
