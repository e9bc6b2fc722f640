package config

import "strings"

// Sanitize returns a copy of the config with secrets masked, for logging.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	if sanitized.Storage.DynamoDB.SecretAccessKey != "" {
		sanitized.Storage.DynamoDB.SecretAccessKey = maskSecret(sanitized.Storage.DynamoDB.SecretAccessKey)
	}
	if sanitized.Storage.DynamoDB.AccessKeyID != "" {
		sanitized.Storage.DynamoDB.AccessKeyID = maskSecret(sanitized.Storage.DynamoDB.AccessKeyID)
	}
	return &sanitized
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
