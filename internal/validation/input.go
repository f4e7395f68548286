package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinProjectTitleLength       = 3
	MaxProjectTitleLength       = 200
	MinProjectDescriptionLength = 10
	MaxProjectDescriptionLength = 5000
	MaxCategoryLength           = 100
	MinDisputeDescriptionLength = 10
	MaxDisputeDescriptionLength = 2000
	MaxReasonLength             = 1000
	MaxApplicationMessageLength = 2000
	MaxDeliveryNoteLength       = 2000
	MinBudget                   = 0.0
	MaxBudget                   = 100000000.0 // 100 миллионов
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateProjectTitle проверяет заголовок проекта.
func ValidateProjectTitle(title string) error {
	if title == "" {
		return fmt.Errorf("заголовок проекта обязателен")
	}
	return ValidateLength("заголовок проекта", strings.TrimSpace(title), MinProjectTitleLength, MaxProjectTitleLength)
}

// ValidateProjectDescription проверяет описание проекта.
func ValidateProjectDescription(description string) error {
	if description == "" {
		return fmt.Errorf("описание проекта обязательно")
	}
	return ValidateLength("описание проекта", strings.TrimSpace(description), MinProjectDescriptionLength, MaxProjectDescriptionLength)
}

// ValidateCategory проверяет категорию проекта.
func ValidateCategory(category string) error {
	if category == "" {
		return fmt.Errorf("категория обязательна")
	}
	return ValidateLength("категория", strings.TrimSpace(category), 1, MaxCategoryLength)
}

// ValidateAmount проверяет денежную сумму.
func ValidateAmount(fieldName string, amount float64) error {
	if amount <= MinBudget {
		return fmt.Errorf("%s должна быть положительной", fieldName)
	}
	if amount > MaxBudget {
		return fmt.Errorf("%s не может превышать %.0f", fieldName, MaxBudget)
	}
	return nil
}

// ValidateDisputeDescription проверяет описание спора.
func ValidateDisputeDescription(description string) error {
	if description == "" {
		return fmt.Errorf("описание спора обязательно")
	}
	return ValidateLength("описание спора", strings.TrimSpace(description), MinDisputeDescriptionLength, MaxDisputeDescriptionLength)
}

// ValidateReason проверяет причину действия (удаление, возврат, отклонение).
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("причина обязательна")
	}
	return ValidateLength("причина", strings.TrimSpace(reason), 1, MaxReasonLength)
}
