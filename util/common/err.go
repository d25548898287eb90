package common

import (
	"errors"

	"github.com/quillpress/blog/logger"
)

// Combine joins the non-nil errors, returning nil when all are nil.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}

func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, "panic:", panicErr)
		}
	}
	return panicErr
}
