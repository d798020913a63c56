package scanner

import (
	"errors"
	"fmt"
)

// 摄像头不可用的子原因
var (
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrPermissionDenied  = errors.New("camera permission denied")
	ErrDeviceBusy        = errors.New("camera busy")
	ErrUnsupported       = errors.New("camera not supported")
	ErrDeviceNotFound    = errors.New("camera not found")
)

// ManualEntryHint 所有摄像头错误都附带的手动输入提示
const ManualEntryHint = "Puedes ingresar el código del modelo manualmente."

var userMessages = map[error]string{
	ErrPermissionDenied: "Permiso de cámara denegado. Habilita el acceso a la cámara en la configuración del navegador.",
	ErrDeviceBusy:       "La cámara está siendo usada por otra aplicación. Ciérrala e intenta de nuevo.",
	ErrUnsupported:      "Este dispositivo no permite usar la cámara para escanear.",
	ErrDeviceNotFound:   "No se encontró ninguna cámara en este dispositivo.",
}

const defaultUserMessage = "No se pudo acceder a la cámara."

// CameraUnavailableError 摄像头获取失败。Cause 为上面的子原因之一，无法识别时为 nil。
type CameraUnavailableError struct {
	Cause error
	Err   error
}

func (e *CameraUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("camera unavailable: %v: %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("camera unavailable: %v", e.Err)
}

// Unwrap 同时匹配 ErrCameraUnavailable、子原因和底层错误
func (e *CameraUnavailableError) Unwrap() []error {
	errs := []error{ErrCameraUnavailable}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// UserMessage 面向用户的提示，带手动输入的后备方案
func (e *CameraUnavailableError) UserMessage() string {
	msg, ok := userMessages[e.Cause]
	if !ok {
		msg = defaultUserMessage
	}
	return msg + " " + ManualEntryHint
}

// Classify 将设备错误归类为 CameraUnavailableError；nil 原样返回
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var already *CameraUnavailableError
	if errors.As(err, &already) {
		return err
	}
	for _, cause := range []error{ErrPermissionDenied, ErrDeviceBusy, ErrUnsupported, ErrDeviceNotFound} {
		if errors.Is(err, cause) {
			return &CameraUnavailableError{Cause: cause, Err: err}
		}
	}
	return &CameraUnavailableError{Err: err}
}
