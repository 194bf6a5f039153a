package domain

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded возвращается при исчерпании дневного лимита сообщений.
// Это ожидаемый исход, а не сбой.
var ErrQuotaExceeded = errors.New("дневной лимит сообщений исчерпан")

// StorageError сбой внешнего хранилища кэша или счётчиков.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("хранилище: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError оборачивает ошибку хранилища с именем операции.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// GenerationError сбой или таймаут бэкенда генерации.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("генерация: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// DeliveryError сбой бэкенда доставки.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("доставка: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
