package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Sentinel codes used by GetCode for the "no error" and "foreign error"
// cases. They never appear inside an AppError built by this package.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeInvalidParam       ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeExternalService    ErrorCode = "COMMON_012"
	ErrCodeNotImplemented     ErrorCode = "COMMON_013"
)

// Code point sequence error codes.
const (
	ErrCodeSequenceInvalidEncoding ErrorCode = "SEQ_001"
	ErrCodeSequenceTooLarge        ErrorCode = "SEQ_002"
)

// Suffix tree error codes.
const (
	ErrCodeTreeTransitionExists ErrorCode = "TREE_001"
	ErrCodeTreeInvalidState     ErrorCode = "TREE_002"
)

// Longest common substring error codes.
const (
	ErrCodeLCSNoSeparator ErrorCode = "LCS_001"
	ErrCodeLCSEmptyInput  ErrorCode = "LCS_002"
)

// Masking error codes.
const (
	ErrCodeMaskNoLabels       ErrorCode = "MASK_001"
	ErrCodeMaskBelowThreshold ErrorCode = "MASK_002"
	ErrCodeMaskCollision      ErrorCode = "MASK_003"
	ErrCodeMaskMissing        ErrorCode = "MASK_004"
)

// Dataset error codes.
const (
	ErrCodeDatasetUnknownSplit    ErrorCode = "DS_001"
	ErrCodeDatasetUnknownLanguage ErrorCode = "DS_002"
	ErrCodeDatasetMalformedRecord ErrorCode = "DS_003"
	ErrCodeDatasetEmptyQuestion   ErrorCode = "DS_004"
)

// Label retrieval error codes.
const (
	ErrCodeLabelQueryFailed       ErrorCode = "LBL_001"
	ErrCodeLabelResponseMalformed ErrorCode = "LBL_002"
	ErrCodeLabelRateLimited       ErrorCode = "LBL_003"
	ErrCodeLabelInvalidSymbol     ErrorCode = "LBL_004"
	ErrCodeLabelInvalidPartSize   ErrorCode = "LBL_005"
)

// Configuration error codes.
const (
	ErrCodeConfigLoadFailed ErrorCode = "CFG_001"
	ErrCodeConfigInvalid    ErrorCode = "CFG_002"
)

// Storage error codes.
const (
	ErrCodeStorageReadFailed    ErrorCode = "STORE_001"
	ErrCodeStorageWriteFailed   ErrorCode = "STORE_002"
	ErrCodeStorageMalformedJSON ErrorCode = "STORE_003"
	ErrCodeStorageUploadFailed  ErrorCode = "STORE_004"
)

// Masking validation error codes.
const (
	ErrCodeValidationMismatch    ErrorCode = "VAL_001"
	ErrCodeValidationMissingPair ErrorCode = "VAL_002"
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeInvalidParam:       "invalid parameter",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeSequenceInvalidEncoding: "input is not valid UTF-8",
	ErrCodeSequenceTooLarge:        "input exceeds the maximum code point count",

	ErrCodeTreeTransitionExists: "state already has a transition for the code point",
	ErrCodeTreeInvalidState:     "state handle does not refer to a live state",

	ErrCodeLCSNoSeparator: "no separator pair is absent from both inputs",
	ErrCodeLCSEmptyInput:  "input string is empty",

	ErrCodeMaskNoLabels:       "no usable label for one or more entities",
	ErrCodeMaskBelowThreshold: "best label score is below the masking threshold",
	ErrCodeMaskCollision:      "mask match ranges overlap",
	ErrCodeMaskMissing:        "no mask recorded for identifier",

	ErrCodeDatasetUnknownSplit:    "unknown dataset split",
	ErrCodeDatasetUnknownLanguage: "unknown natural language",
	ErrCodeDatasetMalformedRecord: "malformed dataset record",
	ErrCodeDatasetEmptyQuestion:   "record has no usable question text",

	ErrCodeLabelQueryFailed:       "label query failed",
	ErrCodeLabelResponseMalformed: "label service returned a malformed response",
	ErrCodeLabelRateLimited:       "label service rate limited the request",
	ErrCodeLabelInvalidSymbol:     "symbol is not a Wikidata entity or property identifier",
	ErrCodeLabelInvalidPartSize:   "part size must be at least one",

	ErrCodeConfigLoadFailed: "failed to load configuration",
	ErrCodeConfigInvalid:    "invalid configuration",

	ErrCodeStorageReadFailed:    "failed to read artifact",
	ErrCodeStorageWriteFailed:   "failed to write artifact",
	ErrCodeStorageMalformedJSON: "artifact is not valid JSON",
	ErrCodeStorageUploadFailed:  "failed to upload artifact",

	ErrCodeValidationMismatch:    "masked pair does not match its reference",
	ErrCodeValidationMissingPair: "reference pair missing from masked file",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsRetryable reports whether an operation that failed with this code may
// succeed on a later attempt. The label task uses it to decide between
// waiting and giving up.
func IsRetryable(code ErrorCode) bool {
	switch code {
	case ErrCodeTooManyRequests, ErrCodeServiceUnavailable, ErrCodeTimeout,
		ErrCodeExternalService, ErrCodeLabelRateLimited:
		return true
	}
	return false
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
