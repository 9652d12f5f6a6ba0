package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"accessory-sync/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

// Claims Webhook 调用方令牌声明
// Jira Automation / Forge 以共享密钥签发 HS256 令牌，Subject 为发起方标识
type Claims struct {
	IssueKey string `json:"issue_key,omitempty"`
	jwtv5.RegisteredClaims
}

// Manager 共享密钥令牌管理器
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewManager 创建令牌管理器
func NewManager(cfg *config.WebhookConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
	}
}

// Enabled 是否配置了共享密钥
func (m *Manager) Enabled() bool {
	return len(m.secret) > 0
}

// GenerateToken 签发令牌（供调用方脚本与测试使用）
func (m *Manager) GenerateToken(subject, issueKey string) (string, error) {
	now := time.Now()
	claims := Claims{
		IssueKey: issueKey,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.ttl)),
			Issuer:    m.issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并验证令牌；配置了 issuer 时要求一致
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	opts := []jwtv5.ParserOption{jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(m.issuer))
	}

	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
