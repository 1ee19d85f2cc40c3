package model

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTCustomClaims はJWTに含めるカスタムクレーム（ペイロード）
type JWTCustomClaims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims // 標準クレーム (iss, sub, exp, jti など) を埋め込む
}
