package validation

import (
	"fmt"
	"net/url"
	"strings"
)

const MaxDeliveryLinkLength = 500

// DeliveryLinkValidator проверяет ссылки на готовую работу: принимаются
// только https-ссылки на домены из списка разрешённых провайдеров.
type DeliveryLinkValidator struct {
	allowed map[string]struct{}
}

// NewDeliveryLinkValidator создаёт валидатор с заданным списком доменов.
func NewDeliveryLinkValidator(domains []string) *DeliveryLinkValidator {
	allowed := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		allowed[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return &DeliveryLinkValidator{allowed: allowed}
}

// Validate проверяет ссылку и возвращает её нормализованный вид.
func (v *DeliveryLinkValidator) Validate(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("ссылка на работу обязательна")
	}
	if err := ValidateLength("ссылка на работу", link, 0, MaxDeliveryLinkLength); err != nil {
		return "", err
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("некорректный формат ссылки")
	}
	if parsed.Scheme != "https" {
		return "", fmt.Errorf("ссылка должна начинаться с https://")
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("ссылка должна содержать доменное имя")
	}

	if _, ok := v.allowed[host]; !ok {
		return "", fmt.Errorf("домен %s не входит в список разрешённых файловых сервисов", host)
	}

	return parsed.String(), nil
}
