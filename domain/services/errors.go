package services

import "errors"

// Sentinel errors ที่ handler ใช้ map เป็น HTTP status
var (
	ErrDuplicateIdentity  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidAssignee    = errors.New("assignee does not exist")
	ErrInvalidAvatar      = errors.New("invalid avatar file")
)
