package checkout

import (
	"regexp"
	"strings"

	"github.com/fjod/techmart/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PaymentMethods accepted on the billing form.
var PaymentMethods = []string{"card", "cash", "paypal"}

func normalizeBilling(b domain.BillingDetails) domain.BillingDetails {
	trim := strings.TrimSpace
	return domain.BillingDetails{
		FirstName:     trim(b.FirstName),
		LastName:      trim(b.LastName),
		Email:         trim(b.Email),
		Phone:         trim(b.Phone),
		Company:       trim(b.Company),
		Address:       trim(b.Address),
		City:          trim(b.City),
		State:         trim(b.State),
		Zip:           trim(b.Zip),
		Country:       trim(b.Country),
		PaymentMethod: strings.ToLower(trim(b.PaymentMethod)),
	}
}

// validateBilling returns the first problem found, in form order.
func validateBilling(b domain.BillingDetails) error {
	required := []struct {
		field, value string
	}{
		{"firstName", b.FirstName},
		{"lastName", b.LastName},
		{"email", b.Email},
		{"address", b.Address},
		{"city", b.City},
		{"paymentMethod", b.PaymentMethod},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Reason: "is required"}
		}
	}

	if !emailPattern.MatchString(b.Email) {
		return &ValidationError{Field: "email", Reason: "invalid email format"}
	}
	for _, m := range PaymentMethods {
		if b.PaymentMethod == m {
			return nil
		}
	}
	return &ValidationError{Field: "paymentMethod", Reason: "unsupported payment method"}
}
