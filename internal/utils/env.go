package utils

import (
  "os"
  "strconv"
  "strings"
  "github.com/codemate-vn/codemate-backend/internal/logger"
)

// secretEnvMarkers flags variable names whose values must never reach the
// logs, even at debug level.
var secretEnvMarkers = []string{"secret", "password", "token", "credential", "api_key"}

func isSecretEnv(key string) bool {
  lower := strings.ToLower(key)
  for _, marker := range secretEnvMarkers {
    if strings.Contains(lower, marker) {
      return true
    }
  }
  return false
}

func loggable(key, val string) string {
  if isSecretEnv(key) {
    return "[REDACTED]"
  }
  return val
}

func GetEnv(key, defaultVal string, log *logger.Logger) string {
  if log != nil {
    log = log.With("env_var", key)
  }
  val, ok := os.LookupEnv(key)
  if !ok {
    if log != nil {
      log.Debug("Environment variable not found, using default", "default", loggable(key, defaultVal))
    }
    return defaultVal
  }
  if log != nil {
    log.Debug("Environment variable found, using environment", "environment", loggable(key, val))
  }
  return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
  if log != nil {
    log = log.With("env_var", key)
  }
  valStr, ok := os.LookupEnv(key)
  if !ok {
    if log != nil {
      log.Debug("Environment variable not found, using default", "default", defaultVal)
    }
    return defaultVal
  }
  i, err := strconv.Atoi(valStr)
  if err != nil {
    if log != nil {
      log.Debug("Environment variable could not be parsed as int, using default", "providedVal", loggable(key, valStr), "defaultVal", defaultVal, "error", err)
    }
    return defaultVal
  }
  return i
}
