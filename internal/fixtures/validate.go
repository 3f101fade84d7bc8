package fixtures

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks every fixture table against its struct tags, ID uniqueness
// and agreement-to-client references
func Validate() error {
	var errs []error

	clientIDs := make(map[string]bool)
	for _, c := range Clients() {
		if err := validate.Struct(c); err != nil {
			errs = append(errs, fmt.Errorf("client %s: %w", c.ID, formatValidationError(err)))
		}
		if clientIDs[c.ID] {
			errs = append(errs, fmt.Errorf("client %s: duplicate id", c.ID))
		}
		clientIDs[c.ID] = true
	}

	agreementIDs := make(map[string]bool)
	for _, a := range Agreements() {
		if err := validate.Struct(a); err != nil {
			errs = append(errs, fmt.Errorf("agreement %s: %w", a.ID, formatValidationError(err)))
		}
		if agreementIDs[a.ID] {
			errs = append(errs, fmt.Errorf("agreement %s: duplicate id", a.ID))
		}
		agreementIDs[a.ID] = true
		if !clientIDs[a.ClientID] {
			errs = append(errs, fmt.Errorf("agreement %s: unknown client %s", a.ID, a.ClientID))
		}
		if a.Status == AgreementSigned && a.SignedAt == nil {
			errs = append(errs, fmt.Errorf("agreement %s: signed without signed_at", a.ID))
		}
	}

	userIDs := make(map[string]bool)
	for _, u := range Users() {
		if err := validate.Struct(u); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", u.ID, formatValidationError(err)))
		}
		if userIDs[u.ID] {
			errs = append(errs, fmt.Errorf("user %s: duplicate id", u.ID))
		}
		userIDs[u.ID] = true
	}

	return errors.Join(errs...)
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, ", "))
}
