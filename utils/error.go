package utils

import "errors"

var (
	ErrorRecordNotFound   = errors.New("record not found")
	ErrorBusinessRequired = errors.New("business id is required")
)
