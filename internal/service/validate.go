package service

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"opsdesk/internal/model"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	notBlankTag      = "notblank"
	roleTag          = "role"
	projectStatusTag = "project_status"
	billingTypeTag   = "billing_type"
	billingSubTag    = "billing_sub_type"
	workTypeTag      = "work_type"
	leaveTypeTag     = "leave_type"
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(roleTag, oneOfValidation(model.Roles))
	_ = validate.RegisterValidation(projectStatusTag, oneOfValidation(model.ProjectStatuses))
	_ = validate.RegisterValidation(billingTypeTag, oneOfValidation(
		[]model.BillingType{model.BillingOneTime, model.BillingHourly, model.BillingRetainer}))
	_ = validate.RegisterValidation(billingSubTag, oneOfValidation(
		[]model.BillingSubType{model.SubTypeFixed, model.SubTypeHours}))
	_ = validate.RegisterValidation(workTypeTag, oneOfValidation(model.WorkTypes))
	_ = validate.RegisterValidation(leaveTypeTag, oneOfValidation(model.LeaveTypes))

	registerCustomTranslations(map[string]string{
		notBlankTag:      "{0} cannot be blank",
		roleTag:          "{0} must be one of admin, manager, employee",
		projectStatusTag: "{0} must be one of planned, active, on_hold, completed",
		billingTypeTag:   "{0} must be one of one_time, hourly, monthly_retainer",
		billingSubTag:    "{0} must be one of fixed, hours",
		workTypeTag:      "{0} must be one of development, design, meeting, testing, support, other",
		leaveTypeTag:     "{0} must be one of sick, casual, annual",
	})
}

func registerCustomTranslations(msgs map[string]string) {
	for tag, text := range msgs {
		text := text
		_ = validate.RegisterTranslation(tag, translator,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(fe.Tag(), fe.Field())
				return msg
			},
		)
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func oneOfValidation[T ~string](allowed []T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, a := range allowed {
			if string(a) == v {
				return true
			}
		}
		return false
	}
}

// validateStruct runs struct tags and converts failures into a *ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.add(fe.Field(), fe.Translate(translator))
	}
	return ve.orNil()
}

// parseDate parses a validated YYYY-MM-DD field. Empty input yields the zero time.
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, fieldError(field, field+" must be a date in YYYY-MM-DD format")
	}
	return d, nil
}
