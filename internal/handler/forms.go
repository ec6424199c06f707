package handler

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"geostaff-client/internal/i18n"
	"geostaff-client/internal/model"
)

// ValidationError is a form problem caught before anything is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := f.Tag.Get("form"); name != "" {
				return name
			}
			return f.Name
		})
		validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return validPhone(fl.Field().String())
		})
	})
	return validate
}

// validPhone accepts digits with optional '+', spaces and dashes, as long as
// there are at least ten digits.
func validPhone(phone string) bool {
	digits := 0
	for _, c := range phone {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '+' || c == ' ' || c == '-':
		default:
			return false
		}
	}
	return digits >= 10
}

func phoneDigits(phone string) string {
	return strings.Map(func(c rune) rune {
		if c >= '0' && c <= '9' {
			return c
		}
		return -1
	}, phone)
}

// check runs the struct tags of form and reports the first failing field.
func check(ctx context.Context, form any) error {
	err := formValidator().Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		return &ValidationError{Field: field, Message: i18n.T(ctx, "validation."+field)}
	}
	return err
}

type PhoneForm struct {
	Phone string `form:"phone" validate:"required,phone"`
}

// Validate also reduces Phone to its digits, the form the server keys OTPs on.
func (f *PhoneForm) Validate(ctx context.Context) error {
	f.Phone = strings.TrimSpace(f.Phone)
	if err := check(ctx, f); err != nil {
		return err
	}
	f.Phone = phoneDigits(f.Phone)
	return nil
}

type OTPForm struct {
	Phone string `form:"phone" validate:"required,phone"`
	OTP   string `form:"otp" validate:"required,len=6,numeric"`
}

func (f *OTPForm) Validate(ctx context.Context) error {
	f.Phone = strings.TrimSpace(f.Phone)
	f.OTP = strings.TrimSpace(f.OTP)
	if err := check(ctx, f); err != nil {
		return err
	}
	f.Phone = phoneDigits(f.Phone)
	return nil
}

type LeaveForm struct {
	LeaveType model.LeaveType `form:"leave_type" validate:"required,oneof=casual sick earned"`
	StartDate string          `form:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string          `form:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string          `form:"reason" validate:"required,min=3,max=500"`
}

// Validate checks every field and that the range does not run backwards.
func (f *LeaveForm) Validate(ctx context.Context) error {
	f.Reason = strings.TrimSpace(f.Reason)
	if err := check(ctx, f); err != nil {
		return err
	}
	start, end, _ := f.Range()
	if end.Before(start) {
		return &ValidationError{Field: "end_date", Message: i18n.T(ctx, "validation.range")}
	}
	return nil
}

// Range parses the two dates. It fails on input that has not been validated.
func (f *LeaveForm) Range() (start, end time.Time, err error) {
	if start, err = time.Parse(time.DateOnly, f.StartDate); err != nil {
		return
	}
	end, err = time.Parse(time.DateOnly, f.EndDate)
	return
}

type CaptureForm struct {
	WorkStatus model.WorkStatus `form:"work_status" validate:"required,oneof=office site remote"`
	Notes      string           `form:"notes" validate:"max=500"`
}

func (f *CaptureForm) Validate(ctx context.Context) error {
	f.Notes = strings.TrimSpace(f.Notes)
	return check(ctx, f)
}
