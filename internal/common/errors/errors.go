// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Filename parsing errors.
	ErrCodeMalformedFilename  ErrorCode = "MALFORMED_FILENAME"
	ErrCodeMissingCompanyName ErrorCode = "MISSING_COMPANY_NAME"

	// Proposal recording errors.
	ErrCodeProposalValidationFailed ErrorCode = "PROPOSAL_VALIDATION_FAILED"

	// PostgreSQL errors.
	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout         ErrorCode = "QUERY_TIMEOUT"
	ErrCodeInvalidQueryType     ErrorCode = "INVALID_QUERY_TYPE"
	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeStatsRefreshFailed   ErrorCode = "STATS_REFRESH_FAILED"

	// Elasticsearch errors.
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeIndexingFailed    ErrorCode = "INDEXING_FAILED"

	// Google Drive errors.
	ErrCodeDriveAuthExpired  ErrorCode = "DRIVE_AUTH_EXPIRED"
	ErrCodeDriveAPIError     ErrorCode = "DRIVE_API_ERROR"
	ErrCodeDriveUploadFailed ErrorCode = "DRIVE_UPLOAD_FAILED"

	// Auth and session errors.
	ErrCodeTokenExchangeFailed ErrorCode = "TOKEN_EXCHANGE_FAILED"
	ErrCodeTokenRefreshFailed  ErrorCode = "TOKEN_REFRESH_FAILED"
	ErrCodeSessionInvalid      ErrorCode = "SESSION_INVALID"
	ErrCodeProfileNotFound     ErrorCode = "PROFILE_NOT_FOUND"

	// Email intake and delivery errors.
	ErrCodeEmailFetchFailed         ErrorCode = "EMAIL_FETCH_FAILED"
	ErrCodeEmailSendFailed          ErrorCode = "EMAIL_SEND_FAILED"
	ErrCodeAttachmentDownloadFailed ErrorCode = "ATTACHMENT_DOWNLOAD_FAILED"
	ErrCodeExtractionFailed         ErrorCode = "EXTRACTION_FAILED"

	// Notification template errors.
	ErrCodeTemplateNotFound         ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateValidationFailed ErrorCode = "TEMPLATE_VALIDATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDriveAuthExpiredError creates a non-retryable Drive auth error.
// The workflow catches this code and routes through token refresh.
func NewDriveAuthExpiredError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDriveAuthExpired,
		Message:   "Google Drive access token expired or revoked",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDriveAPIError creates a retryable Drive API error.
func NewDriveAPIError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDriveAPIError,
		Message:   "Google Drive API error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDriveUploadFailedError creates a retryable Drive upload error.
func NewDriveUploadFailedError(filename string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDriveUploadFailed,
		Message:   "Google Drive file upload failed",
		Details:   fmt.Sprintf("filename: %s, error: %s", filename, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTokenExchangeFailedError creates a retryable OAuth code exchange error.
func NewTokenExchangeFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenExchangeFailed,
		Message:   "OAuth authorization code exchange failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTokenRefreshFailedError creates a retryable token refresh error.
func NewTokenRefreshFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenRefreshFailed,
		Message:   "OAuth token refresh failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionInvalidError creates a non-retryable session error.
func NewSessionInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionInvalid,
		Message:   "Session token invalid or expired",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError creates a non-retryable profile lookup error.
func NewProfileNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "User profile not found",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailFetchFailedError creates a retryable inbound email fetch error.
func NewEmailFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailFetchFailed,
		Message:   "Inbound email fetch failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailSendFailedError creates a retryable email delivery error.
func NewEmailSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Email delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAttachmentDownloadFailedError creates a retryable attachment download error.
func NewAttachmentDownloadFailedError(attachmentID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAttachmentDownloadFailed,
		Message:   "Email attachment download failed",
		Details:   fmt.Sprintf("attachmentId: %s, error: %s", attachmentID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      "AUTHENTICATION_ERROR",
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
// The workflow definitions use the same literals, so the mapping is identity.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeMalformedFilename:        "MALFORMED_FILENAME",
	ErrCodeMissingCompanyName:       "MISSING_COMPANY_NAME",
	ErrCodeProposalValidationFailed: "PROPOSAL_VALIDATION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeInvalidQueryType:         "INVALID_QUERY_TYPE",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
	ErrCodeStatsRefreshFailed:       "STATS_REFRESH_FAILED",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:            "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:            "INDEX_NOT_FOUND",
	ErrCodeIndexingFailed:           "INDEXING_FAILED",
	ErrCodeDriveAuthExpired:         "DRIVE_AUTH_EXPIRED",
	ErrCodeDriveAPIError:            "DRIVE_API_ERROR",
	ErrCodeDriveUploadFailed:        "DRIVE_UPLOAD_FAILED",
	ErrCodeTokenExchangeFailed:      "TOKEN_EXCHANGE_FAILED",
	ErrCodeTokenRefreshFailed:       "TOKEN_REFRESH_FAILED",
	ErrCodeSessionInvalid:           "SESSION_INVALID",
	ErrCodeProfileNotFound:          "PROFILE_NOT_FOUND",
	ErrCodeEmailFetchFailed:         "EMAIL_FETCH_FAILED",
	ErrCodeEmailSendFailed:          "EMAIL_SEND_FAILED",
	ErrCodeAttachmentDownloadFailed: "ATTACHMENT_DOWNLOAD_FAILED",
	ErrCodeExtractionFailed:         "EXTRACTION_FAILED",
	ErrCodeTemplateNotFound:         "TEMPLATE_NOT_FOUND",
	ErrCodeTemplateValidationFailed: "TEMPLATE_VALIDATION_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeIndexingFailed,
		ErrCodeDriveAPIError,
		ErrCodeDriveUploadFailed,
		ErrCodeEmailFetchFailed,
		ErrCodeEmailSendFailed,
		ErrCodeAttachmentDownloadFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeTokenExchangeFailed,
		ErrCodeTokenRefreshFailed:
		return 2 // Partial retry for timeouts and token endpoints

	case ErrCodeStatsRefreshFailed:
		return 1 // Concurrent refresh conflicts resolve on a single retry

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// CodeOf reports the standard error code carried by err or anything it
// wraps, or UNKNOWN_ERROR for errors raised outside the taxonomy. Used
// for metrics labels.
func CodeOf(err error) string {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	var bpmnErr *BPMNError
	if stderrors.As(err, &bpmnErr) {
		return bpmnErr.Code
	}
	return "UNKNOWN_ERROR"
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "FILENAME") || strings.Contains(codeStr, "COMPANY_NAME"):
		return "PARSING"
	case strings.Contains(codeStr, "DRIVE"):
		return "DRIVE"
	case strings.Contains(codeStr, "TOKEN") || strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "PROFILE") || strings.Contains(codeStr, "AUTH"):
		return "AUTH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "STATS"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "EMAIL") || strings.Contains(codeStr, "ATTACHMENT") || strings.Contains(codeStr, "EXTRACTION"):
		return "EMAIL"
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
