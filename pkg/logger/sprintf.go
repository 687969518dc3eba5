package logger

import "fmt"

// sprintf форматирует сообщение только при наличии аргументов,
// чтобы не платить за форматирование простых строк.
func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}

	return fmt.Sprintf(format, args...)
}
