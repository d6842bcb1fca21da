package handler

import "strings"

// sanitizeString 사용자 입력 문자열 정리 (XSS 방지)
func sanitizeString(s string) string {
	s = strings.TrimSpace(s)
	invalidChars := []string{"<", ">", "\"", "'", ";"}
	for _, char := range invalidChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}
