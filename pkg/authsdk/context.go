package authsdk

import (
	"net/http"
	"strings"
)

// HeaderAuthToken 前端约定的令牌请求头
const HeaderAuthToken = "X-Auth-Token"

// ExtractToken 从 HTTP 请求头中提取 JWT token
// 支持两种方式：
// 1. X-Auth-Token header
// 2. Authorization header (Bearer token)
func ExtractToken(header http.Header) (string, error) {
	if token := strings.TrimSpace(header.Get(HeaderAuthToken)); token != "" {
		return token, nil
	}

	if auth := strings.TrimSpace(header.Get("Authorization")); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
	}

	return "", ErrNoToken
}

// GetUserFromHeader 解析请求头中的用户信息
func GetUserFromHeader(header http.Header, secret string) (*UserContext, error) {
	token, err := ExtractToken(header)
	if err != nil {
		return nil, err
	}
	return ParseToken(token, secret)
}
