package upload

import (
	"errors"
	"fmt"

	"terminal-terrace/video-lead/pkg/response"
)

var (
	ErrValidation = errors.New("invalid upload request")
	ErrNotFound   = errors.New("upload session not found")
	ErrState      = errors.New("upload session not active")
	ErrIntegrity  = errors.New("chunk verification failed")
	ErrStorage    = errors.New("upload storage failure")
	ErrAssembly   = errors.New("upload assembly failed")
)

// storageErr 包装数据库错误，已归类的错误原样返回
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrValidation, ErrNotFound, ErrState, ErrIntegrity, ErrStorage, ErrAssembly} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

// toBusinessError 将上传错误映射为业务错误码
func toBusinessError(err error) *response.BusinessError {
	code := response.StorageFailed
	msg := "上传处理失败"
	switch {
	case errors.Is(err, ErrValidation):
		code, msg = response.InvalidParameter, err.Error()
	case errors.Is(err, ErrNotFound):
		code, msg = response.NotFound, err.Error()
	case errors.Is(err, ErrState):
		code, msg = response.InvalidState, err.Error()
	case errors.Is(err, ErrIntegrity):
		code, msg = response.IntegrityFailed, err.Error()
	case errors.Is(err, ErrAssembly):
		code, msg = response.Fail, "视频合并失败"
	}
	return response.NewBusinessError(
		response.WithErrorCode(code),
		response.WithErrorMessage(msg),
		response.WithError(err),
	)
}
