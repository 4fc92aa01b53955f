// Package token 提供了用于生成和验证 JSON Web Tokens (JWT) 的功能。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token 类型，refresh token 不能用于访问受保护的接口。
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrWrongTokenType 表示 token 有效，但类型与期望的不一致。
var ErrWrongTokenType = errors.New("wrong token type")

// JWTManager 负责管理 JWT 的生成和验证。
type JWTManager struct {
	secretKey       []byte        // secretKey 用于签名和验证 token 的密钥
	accessTokenDur  time.Duration // accessTokenDur 定义了 access token 的有效期
	refreshTokenDur time.Duration // refreshTokenDur 定义了 refresh token 的有效期
}

// CustomClaims 定义了我们想要在 JWT 中存储的临床用户信息。
// 它嵌入了 jwt.RegisteredClaims 以包含标准的 JWT 声明（如过期时间）。
type CustomClaims struct {
	ClinicianID uint   `json:"clinicianId"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	TokenType   string `json:"tokenType"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
// secret: 用于签名的密钥字符串。
// accessTokenExpireHours: access token 的过期时间（小时）。
// refreshTokenExpireDays: refresh token 的过期时间（天）。
func NewJWTManager(secret string, accessTokenExpireHours, refreshTokenExpireDays int) *JWTManager {
	return &JWTManager{
		secretKey:       []byte(secret),
		accessTokenDur:  time.Hour * time.Duration(accessTokenExpireHours),
		refreshTokenDur: time.Duration(refreshTokenExpireDays) * 24 * time.Hour,
	}
}

func (m *JWTManager) sign(clinicianID uint, username, role, tokenType string, dur time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		ClinicianID: clinicianID,
		Username:    username,
		Role:        role,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(dur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	// 使用 HS256 签名方法创建新的 token 对象
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// GenerateToken 根据给定的用户信息生成一个新的 access token。
func (m *JWTManager) GenerateToken(clinicianID uint, username, role string) (string, error) {
	return m.sign(clinicianID, username, role, TypeAccess, m.accessTokenDur)
}

// GenerateRefreshToken 生成一个新的 refresh token，使用更长的过期时间。
func (m *JWTManager) GenerateRefreshToken(clinicianID uint, username, role string) (string, error) {
	return m.sign(clinicianID, username, role, TypeRefresh, m.refreshTokenDur)
}

// VerifyToken 验证给定的 token 字符串，并检查其类型。
// 如果 token 无效（例如，签名不匹配或已过期），则返回错误。
func (m *JWTManager) VerifyToken(tokenString, expectedType string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 检查签名方法是否为 HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != expectedType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
