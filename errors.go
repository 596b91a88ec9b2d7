package sensorlink

import (
	"errors"
	"fmt"

	"github.com/arlo-embedded/sensorlink/internal/interfaces"
)

// Error represents a structured sensorlink error with pipeline
// context and transport-status mapping.
type Error struct {
	Op       string            // Operation that failed (e.g., "PUSH", "SEND", "RUN_ONCE")
	SensorID int               // Sensor ID (-1 if not applicable)
	Status   interfaces.Status // Transport status that produced this error
	Code     ErrorCode         // High-level error category
	Msg      string            // Human-readable message
	Inner    error             // Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.SensorID >= 0 {
		parts = append(parts, fmt.Sprintf("sensor=%d", e.SensorID))
	}
	if e.Status != interfaces.StatusSuccess {
		parts = append(parts, fmt.Sprintf("status=%s", e.Status))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("sensorlink: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("sensorlink: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is provides errors.Is support, comparing by Code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode represents high-level error categories.
type ErrorCode string

const (
	ErrCodeInvalidSample      ErrorCode = "invalid sample"
	ErrCodeUnregisteredSensor ErrorCode = "unregistered sensor"
	ErrCodeSendFailed         ErrorCode = "send failed"
	ErrCodeTransportTimeout   ErrorCode = "transport timeout"
	ErrCodeTransportError     ErrorCode = "transport error"
	ErrCodePermanentTransport ErrorCode = "permanent transport error"
	ErrCodeConfigInvalid      ErrorCode = "invalid configuration"
)

// NewError creates a new structured error.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, SensorID: -1, Code: code, Msg: msg}
}

// NewSensorError creates a new sensor-scoped error.
func NewSensorError(op string, sensorID int, code ErrorCode, msg string) *Error {
	return &Error{Op: op, SensorID: sensorID, Code: code, Msg: msg}
}

// NewErrorWithStatus creates a new structured error carrying the
// transport status that produced it.
func NewErrorWithStatus(op string, status interfaces.Status) *Error {
	return &Error{
		Op:       op,
		SensorID: -1,
		Status:   status,
		Code:     mapStatusToCode(status),
		Msg:      status.String(),
	}
}

// WrapError wraps an existing error with sensorlink context.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	var se *Error
	if errors.As(inner, &se) {
		return &Error{
			Op:       op,
			SensorID: se.SensorID,
			Status:   se.Status,
			Code:     se.Code,
			Msg:      se.Msg,
			Inner:    se.Inner,
		}
	}

	return &Error{
		Op:       op,
		SensorID: -1,
		Code:     ErrCodeSendFailed,
		Msg:      inner.Error(),
		Inner:    inner,
	}
}

// mapStatusToCode maps a transport status to a sensorlink error code.
func mapStatusToCode(status interfaces.Status) ErrorCode {
	switch status {
	case interfaces.StatusTimeout:
		return ErrCodeTransportTimeout
	case interfaces.StatusInvalidPacketLength, interfaces.StatusInvalidPacketLocation:
		return ErrCodePermanentTransport
	case interfaces.StatusError, interfaces.StatusUnknown:
		return ErrCodeTransportError
	default:
		return ErrCodeSendFailed
	}
}

// IsCode checks if an error matches a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
