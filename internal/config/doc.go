// Package config provides 12-factor configuration for the copilot client.
//
// Configuration is loaded from environment variables with sensible defaults;
// CLI flags may override individual values.
//
// Configuration Sections:
//   - Backend: base URL, request timeout, outbound rate limit
//   - Cache: session snapshot location
//   - Auth: credential file location
//   - Logging: level and output format
//
// Environment Variables:
//   - COPILOT_URL, COPILOT_TIMEOUT, COPILOT_RPS
//   - COPILOT_CACHE, COPILOT_TOKEN_FILE
//   - LOG_LEVEL, LOG_DEV
package config
