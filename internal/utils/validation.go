package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// SanitizeString 清理字符串，移除或转义危险字符
func SanitizeString(input string) string {
	// 1. HTML 转义，防止 XSS
	sanitized := html.EscapeString(input)

	// 2. 移除控制字符（除了换行符和制表符）
	var result strings.Builder
	for _, r := range sanitized {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

// ValidateTitle 验证申请标题
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ErrEmptyTitle
	}

	if len(trimmed) > 255 {
		return ErrTitleTooLong
	}

	if containsDangerousChars(trimmed) {
		return ErrDangerousChars
	}

	return nil
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail 验证邮箱格式
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmptyEmail
	}

	if len(email) > 255 {
		return ErrEmailTooLong
	}

	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateRoleName 验证角色名格式（只允许字母、数字、连字符、下划线）
func ValidateRoleName(name string) error {
	if name == "" {
		return ErrEmptyName
	}

	matched, _ := regexp.MatchString(`^[a-zA-Z0-9_-]+$`, name)
	if !matched {
		return ErrInvalidNameFormat
	}

	if len(name) > 64 {
		return ErrNameTooLong
	}

	return nil
}

// containsDangerousChars 检查字符串是否包含危险字符
func containsDangerousChars(s string) bool {
	// 检查常见的 XSS 和 SQL 注入模式
	dangerousPatterns := []string{
		"<script",
		"</script>",
		"javascript:",
		"onerror=",
		"onload=",
		"';",
		"'; --",
		"drop table",
		"delete from",
		"insert into",
		"union select",
		"<iframe",
		"<img",
		"<svg",
	}

	lower := strings.ToLower(s)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}

// TrimAndValidate 清理并验证字符串
func TrimAndValidate(s string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(s)

	if trimmed == "" {
		return "", ErrEmptyString
	}

	if maxLen > 0 && len(trimmed) > maxLen {
		return "", ErrStringTooLong
	}

	return SanitizeString(trimmed), nil
}

// 错误定义
var (
	ErrEmptyTitle        = &ValidationError{Code: "EMPTY_TITLE", Message: "title cannot be empty"}
	ErrTitleTooLong      = &ValidationError{Code: "TITLE_TOO_LONG", Message: "title exceeds maximum length"}
	ErrDangerousChars    = &ValidationError{Code: "DANGEROUS_CHARS", Message: "value contains dangerous characters"}
	ErrEmptyEmail        = &ValidationError{Code: "EMPTY_EMAIL", Message: "email cannot be empty"}
	ErrEmailTooLong      = &ValidationError{Code: "EMAIL_TOO_LONG", Message: "email exceeds maximum length"}
	ErrInvalidEmail      = &ValidationError{Code: "INVALID_EMAIL", Message: "email format is invalid"}
	ErrEmptyName         = &ValidationError{Code: "EMPTY_NAME", Message: "name cannot be empty"}
	ErrInvalidNameFormat = &ValidationError{Code: "INVALID_NAME_FORMAT", Message: "name contains invalid characters"}
	ErrNameTooLong       = &ValidationError{Code: "NAME_TOO_LONG", Message: "name exceeds maximum length"}
	ErrEmptyString       = &ValidationError{Code: "EMPTY_STRING", Message: "string cannot be empty"}
	ErrStringTooLong     = &ValidationError{Code: "STRING_TOO_LONG", Message: "string exceeds maximum length"}
)

// ValidationError 验证错误
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
