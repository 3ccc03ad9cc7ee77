package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

var packageValidator = NewValidator()

func fieldError(field, rule, message string) *appErrors.Error {
	err := appErrors.Clone(appErrors.ErrValidation, message)
	err.Details = []appErrors.FieldError{{Field: field, Rule: rule}}
	return err
}

// checkChoices enforces the multiple-choice rules shared by bank questions
// and test snapshots.
func checkChoices(field string, qType models.QuestionType, options []string, answer *string) *appErrors.Error {
	if qType != models.QuestionTypeMCQ {
		return nil
	}
	if len(options) < 2 {
		return fieldError(field+".options", "min", "multiple choice questions need at least two options")
	}
	for i, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return fieldError(fmt.Sprintf("%s.options[%d]", field, i), "required", "options must not be blank")
		}
	}
	if answer != nil && models.OptionIndex(options, answer) < 0 {
		return fieldError(field+".answer", "oneof", "answer must match one of the options")
	}
	return nil
}

func validateSnapshots(v *validator.Validate, snapshots []models.QuestionSnapshot) error {
	if len(snapshots) == 0 {
		return fieldError("questions", "required", "at least one question is required")
	}
	for i, snap := range snapshots {
		field := fmt.Sprintf("questions[%d]", i)
		if err := v.Struct(snap); err != nil {
			return appErrors.ValidationAt(err, field, field+" is invalid")
		}
		if err := checkChoices(field, snap.Type, snap.Options, snap.Answer); err != nil {
			return err
		}
	}
	return nil
}
