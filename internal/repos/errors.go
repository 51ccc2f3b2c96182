package repos

import (
  "errors"
  "strings"
  "gorm.io/gorm"
)

// Store errors are collapsed into three tagged kinds so callers can tell
// "nothing to show" from "retry me" without inspecting driver internals.
var (
  ErrNotFound  = errors.New("record not found")
  ErrDuplicate = errors.New("record already exists")
  ErrTransient = errors.New("store temporarily unavailable")
)

func mapStoreError(err error) error {
  if err == nil {
    return nil
  }
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return ErrNotFound
  }
  if isDuplicate(err) {
    return ErrDuplicate
  }
  return ErrTransient
}

func isDuplicate(err error) bool {
  if errors.Is(err, gorm.ErrDuplicatedKey) {
    return true
  }
  msg := strings.ToLower(err.Error())
  return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
