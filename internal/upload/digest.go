package upload

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Verifier 分片摘要校验
type Verifier interface {
	Algorithm() string
	Sum(payload []byte) string
	// Verify 比较 payload 的摘要与 expected，expected 为空时跳过校验
	Verify(payload []byte, expected string) bool
}

// NewVerifier 按配置名创建校验器：md5（默认）或 xxhash64
func NewVerifier(algorithm string) (Verifier, error) {
	switch strings.ToLower(algorithm) {
	case "", "md5":
		return MD5Verifier{}, nil
	case "xxhash64":
		return XXHashVerifier{}, nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm %q", algorithm)
	}
}

// MD5Verifier 与现有客户端兼容的 md5 十六进制摘要
type MD5Verifier struct{}

func (MD5Verifier) Algorithm() string { return "md5" }

func (MD5Verifier) Sum(payload []byte) string {
	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:])
}

func (v MD5Verifier) Verify(payload []byte, expected string) bool {
	return verify(v, payload, expected)
}

// XXHashVerifier xxhash64，16 位十六进制
type XXHashVerifier struct{}

func (XXHashVerifier) Algorithm() string { return "xxhash64" }

func (XXHashVerifier) Sum(payload []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(payload))
}

func (v XXHashVerifier) Verify(payload []byte, expected string) bool {
	return verify(v, payload, expected)
}

func verify(v Verifier, payload []byte, expected string) bool {
	expected = strings.TrimSpace(expected)
	if expected == "" {
		return true
	}
	return strings.EqualFold(v.Sum(payload), expected)
}
