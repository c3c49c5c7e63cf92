package service

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

var (
	// emailPattern is the address format accepted at registration and login.
	emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

	// looseEmailPattern is the format accepted by the welcome mail endpoint.
	looseEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// RegistrationInput is the data collected by the registration form.
type RegistrationInput struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email_address"`
	Password  string `json:"password" validate:"required,min=8"`

	// ConfirmPassword is nil when the form did not collect it.
	ConfirmPassword *string `json:"confirmPassword" validate:"omitnil,eqfield=Password"`

	Phone string `json:"phone"`
}

// Normalized trims the free text fields. The password is left untouched.
func (in RegistrationInput) Normalized() RegistrationInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

// LoginInput is the data collected by the login form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email_address"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput is the editable part of a profile.
type ProfileInput struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone"`
}

// WelcomeInput is the body of a welcome mail request.
type WelcomeInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,loose_email"`
}

// AdminConfirmInput names the address to confirm.
type AdminConfirmInput struct {
	Email string `json:"email" validate:"required,email_address"`
}

// Messages keyed by "<struct>.<field>.<tag>". {0} is the tag parameter.
var fieldMessages = map[string]string{
	"RegistrationInput.firstName.required":      "First name is required",
	"RegistrationInput.lastName.required":       "Last name is required",
	"RegistrationInput.email.required":          "Email is required",
	"RegistrationInput.email.email_address":     "Please enter a valid email address",
	"RegistrationInput.password.required":       "Password is required",
	"RegistrationInput.password.min":            "Password must be at least {0} characters",
	"RegistrationInput.confirmPassword.eqfield": "Passwords do not match",

	"LoginInput.email.required":      "Email is required",
	"LoginInput.email.email_address": "Please enter a valid email address",
	"LoginInput.password.required":   "Password is required",

	"ProfileInput.firstName.required": "First name is required",
	"ProfileInput.lastName.required":  "Last name is required",

	"AdminConfirmInput.email.required":      "Email is required",
	"AdminConfirmInput.email.email_address": "Please enter a valid email address",

	"WelcomeInput.name.required":     "Name and email are required",
	"WelcomeInput.email.required":    "Name and email are required",
	"WelcomeInput.email.loose_email": "Invalid email format",
}

const fallbackMessageKey = "invalid"

type validation struct {
	validate *validator.Validate
	trans    ut.Translator
}

var loadValidation = sync.OnceValue(newValidation)

func newValidation() *validation {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	mustRegister(v.RegisterValidation("email_address", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}))
	mustRegister(v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmailPattern.MatchString(fl.Field().String())
	}))

	for key, text := range fieldMessages {
		mustRegister(trans.Add(key, text, false))
	}
	mustRegister(trans.Add(fallbackMessageKey, "{0} is invalid", false))

	for _, tag := range []string{"required", "min", "eqfield", "email_address", "loose_email"} {
		mustRegister(v.RegisterTranslation(tag, trans,
			func(ut.Translator) error { return nil },
			translateFieldError,
		))
	}

	return &validation{validate: v, trans: trans}
}

func translateFieldError(t ut.Translator, fe validator.FieldError) string {
	msg, err := t.T(fe.Namespace()+"."+fe.Tag(), fe.Param())
	if err != nil {
		msg, _ = t.T(fallbackMessageKey, fe.Field())
	}
	return msg
}

func mustRegister(err error) {
	if err != nil {
		panic("service: validation setup: " + err.Error())
	}
}

// check validates s and returns one message per failing field.
func (v *validation) check(s any) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"": err.Error()}
	}

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = fe.Translate(v.trans)
		}
	}
	return fields
}

// ValidateRegistration returns a message per invalid field, or nil. Names
// and email are trimmed before they are checked.
func ValidateRegistration(in RegistrationInput) map[string]string {
	return loadValidation().check(in.Normalized())
}

// ValidateLogin checks the login form.
func ValidateLogin(in LoginInput) map[string]string {
	in.Email = strings.TrimSpace(in.Email)
	return loadValidation().check(in)
}

// ValidateAdminConfirm checks an administrative confirmation request.
func ValidateAdminConfirm(in AdminConfirmInput) map[string]string {
	in.Email = strings.TrimSpace(in.Email)
	return loadValidation().check(in)
}

// ValidateProfile checks a profile edit.
func ValidateProfile(in ProfileInput) map[string]string {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	return loadValidation().check(in)
}

// ValidateWelcome returns the first problem with a welcome mail request, or
// "" when it is valid.
func ValidateWelcome(in WelcomeInput) string {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	fields := loadValidation().check(in)
	if msg, ok := fields["name"]; ok {
		return msg
	}
	return fields["email"]
}
