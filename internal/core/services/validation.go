package services

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"langlearn-api/internal/config"
	"langlearn-api/internal/core/domain"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// maxPasswordBytes is the bcrypt input limit; longer input would be silently truncated
const maxPasswordBytes = 72

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._@+-]+$`)

// PasswordPolicy describes what a new password must satisfy
type PasswordPolicy struct {
	MinLength     int
	RequireDigit  bool
	RequireUpper  bool
	RequireLower  bool
	RequireSymbol bool
}

// NewPasswordPolicy builds the policy from config
func NewPasswordPolicy(cfg config.PasswordConfig) PasswordPolicy {
	return PasswordPolicy{
		MinLength:     cfg.MinLength,
		RequireDigit:  cfg.RequireDigit,
		RequireUpper:  cfg.RequireUpper,
		RequireLower:  cfg.RequireLower,
		RequireSymbol: cfg.RequireSymbol,
	}
}

// Check returns every rule pw breaks
func (p PasswordPolicy) Check(pw string) []string {
	var reasons []string
	if len([]rune(pw)) < p.MinLength {
		reasons = append(reasons, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}
	if len(pw) > maxPasswordBytes {
		reasons = append(reasons, fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}

	var digit, upper, lower, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			symbol = true
		}
	}
	if p.RequireDigit && !digit {
		reasons = append(reasons, "must contain a digit")
	}
	if p.RequireUpper && !upper {
		reasons = append(reasons, "must contain an uppercase letter")
	}
	if p.RequireLower && !lower {
		reasons = append(reasons, "must contain a lowercase letter")
	}
	if p.RequireSymbol && !symbol {
		reasons = append(reasons, "must contain a non-alphanumeric character")
	}
	return reasons
}

// policyError keeps each broken password rule as its own reason
type policyError []string

func (e policyError) Error() string {
	return strings.Join(e, "; ")
}

func (p PasswordPolicy) rule() validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if reasons := p.Check(s); len(reasons) > 0 {
			return policyError(reasons)
		}
		return nil
	})
}

// notEmail rejects usernames in email form; login resolves emails first,
// so such a username could shadow another account's email.
func notEmail(value interface{}) error {
	s, _ := value.(string)
	if s != "" && is.Email.Validate(s) == nil {
		return errors.New("must not be an email address")
	}
	return nil
}

// Validator is the single place where auth input is checked
type Validator struct {
	policy PasswordPolicy
}

// NewValidator creates a new validator
func NewValidator(policy PasswordPolicy) *Validator {
	return &Validator{policy: policy}
}

// Register validates registration input
func (v *Validator) Register(in RegisterInput) error {
	return flatten(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Username, validation.Required, validation.Length(3, 50), validation.Match(usernamePattern), validation.By(notEmail)),
		validation.Field(&in.Password, validation.Required, v.policy.rule()),
	))
}

// Login validates login input. Only presence is checked so that
// malformed credentials still fail as invalid credentials.
func (v *Validator) Login(in LoginInput) error {
	return flatten(validation.ValidateStruct(&in,
		validation.Field(&in.EmailOrUsername, validation.Required),
		validation.Field(&in.Password, validation.Required),
	))
}

// ForgotPassword validates forgot password input
func (v *Validator) ForgotPassword(in ForgotPasswordInput) error {
	return flatten(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
	))
}

// ResetPassword validates reset password input
func (v *Validator) ResetPassword(in ResetPasswordInput) error {
	return flatten(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Token, validation.Required),
		validation.Field(&in.NewPassword, validation.Required, v.policy.rule()),
	))
}

// flatten turns ozzo field errors into a sorted ValidationError
func flatten(err error) error {
	if err == nil {
		return nil
	}

	var fields validation.Errors
	if !errors.As(err, &fields) {
		return err
	}

	reasons := make([]string, 0, len(fields))
	for field, fe := range fields {
		var pe policyError
		if errors.As(fe, &pe) {
			for _, r := range pe {
				reasons = append(reasons, field+": "+r)
			}
			continue
		}
		reasons = append(reasons, field+": "+fe.Error())
	}
	sort.Strings(reasons)
	return domain.NewValidationError(reasons...)
}
