package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a request failure.
type Kind string

const (
	KindNoFilesProvided          Kind = "no_files_provided"
	KindUnsupportedMediaType     Kind = "unsupported_media_type"
	KindPayloadTooLarge          Kind = "payload_too_large"
	KindInvalidCombination       Kind = "invalid_combination"
	KindInvalidRequest           Kind = "invalid_request"
	KindAdapterAuthFailure       Kind = "adapter_auth_failure"
	KindAdapterUnavailable       Kind = "adapter_unavailable"
	KindAdapterConnectionFailure Kind = "adapter_connection_failure"
	KindAdapterError             Kind = "adapter_error"
	KindDateParseFailure         Kind = "date_parse_failure"
	KindUnexpected               Kind = "unexpected_failure"
)

var defaultStatus = map[Kind]int{
	KindNoFilesProvided:          http.StatusBadRequest,
	KindUnsupportedMediaType:     http.StatusUnsupportedMediaType,
	KindPayloadTooLarge:          http.StatusRequestEntityTooLarge,
	KindInvalidCombination:       http.StatusBadRequest,
	KindInvalidRequest:           http.StatusBadRequest,
	KindAdapterAuthFailure:       http.StatusUnauthorized,
	KindAdapterUnavailable:       http.StatusServiceUnavailable,
	KindAdapterConnectionFailure: http.StatusServiceUnavailable,
	KindAdapterError:             http.StatusBadGateway,
	KindDateParseFailure:         http.StatusUnprocessableEntity,
	KindUnexpected:               http.StatusInternalServerError,
}

var thaiDetail = map[Kind]string{
	KindNoFilesProvided:          "ไม่พบไฟล์สื่อที่อัปโหลด",
	KindUnsupportedMediaType:     "ประเภทไฟล์ไม่รองรับ รองรับเฉพาะรูปภาพ JPG, PNG และวิดีโอ MP4",
	KindPayloadTooLarge:          "ไฟล์มีขนาดใหญ่เกินกำหนด",
	KindInvalidCombination:       "การรวมไฟล์ไม่ถูกต้อง กรุณาอัปโหลดรูปภาพอย่างน้อยหนึ่งรูปหรือวิดีโอหนึ่งไฟล์",
	KindInvalidRequest:           "คำขอไม่ถูกต้อง",
	KindAdapterAuthFailure:       "การยืนยันตัวตนกับบริการวิเคราะห์ล้มเหลว",
	KindAdapterUnavailable:       "โมเดลวิเคราะห์ไม่พร้อมใช้งานในขณะนี้",
	KindAdapterConnectionFailure: "ไม่สามารถเชื่อมต่อกับบริการวิเคราะห์ได้",
	KindAdapterError:             "บริการวิเคราะห์ตอบกลับข้อผิดพลาด",
	KindDateParseFailure:         "รูปแบบวันที่ผลิตไม่ถูกต้อง",
	KindUnexpected:               "เกิดข้อผิดพลาดที่ไม่คาดคิดในระบบ",
}

// Error is a classified failure carrying the HTTP status it maps to.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Thai    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error with the default status and Thai text for kind.
func NewError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Status:  statusFor(kind),
		Message: message,
		Thai:    thaiDetail[kind],
	}
}

// WrapError classifies err under kind. A non-zero status overrides the
// default mapping (adapter errors carry the upstream status).
func WrapError(kind Kind, status int, message string, err error) *Error {
	e := NewError(kind, message)
	if status > 0 {
		e.Status = status
	}
	e.Err = err
	return e
}

// KindOf returns the kind of the first Error in err's chain, or
// KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// AsError returns err's classified Error, wrapping unknown failures as
// KindUnexpected.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return WrapError(KindUnexpected, 0, "An unexpected server error occurred", err)
}

func statusFor(kind Kind) int {
	if s, ok := defaultStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}
