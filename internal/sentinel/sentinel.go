package sentinel

import "errors"

// Ошибки инфраструктурного уровня. Хранилища возвращают их (обёрнутыми через %w),
// а обработчики HTTP переводят в коды ответа через errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
)
