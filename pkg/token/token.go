package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL 是令牌的固定有效期
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidToken 覆盖所有验证失败：签名错误、过期、格式错误、算法不符
	ErrInvalidToken = errors.New("token: 令牌无效或已过期")
)

// Claims 是令牌携带的用户身份
type Claims struct {
	ID      int64  `json:"id"`
	Apelido string `json:"apelido"`
	jwt.RegisteredClaims
}

// Issuer 使用HS256签发和验证令牌
type Issuer struct {
	secret    []byte
	ttl       time.Duration
	generated bool
	now       func() time.Time
}

// NewIssuer 创建签发器。secret为空时生成一个32字节的随机密钥，
// 此时进程重启后之前签发的令牌全部失效。
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	iss := &Issuer{ttl: ttl, now: time.Now}
	if secret != "" {
		iss.secret = []byte(secret)
		return iss, nil
	}

	key, err := GenerateSecretKey()
	if err != nil {
		return nil, err
	}
	iss.secret = key
	iss.generated = true
	return iss, nil
}

// GenerateSecretKey 生成一个密码学安全的32字节随机密钥
func GenerateSecretKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("无法生成安全的密钥: %w", err)
	}
	return key, nil
}

// Generated 报告密钥是否为启动时随机生成
func (i *Issuer) Generated() bool {
	return i.generated
}

// Issue 为用户签发一个令牌
func (i *Issuer) Issue(id int64, apelido string) (string, error) {
	now := i.now()
	claims := Claims{
		ID:      id,
		Apelido: apelido,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, nil
}

// Verify 验证令牌并返回其中的身份
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
