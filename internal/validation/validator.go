// Package validation checks catalog records against their field constraints before
// they reach storage.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/shadownovel/catalog/internal/domain"
	domainerrors "github.com/shadownovel/catalog/internal/errors"
)

// Character classes for pattern-constrained fields. Lengths are checked separately by
// the min/max rules so that short and long values get their own reasons.
var (
	usernamePattern   = regexp.MustCompile(`^[a-zA-Z0-9\-_@]+$`)
	personNamePattern = regexp.MustCompile(`^[a-zA-Z ]+$`)
	passwordPattern   = regexp.MustCompile(`^[a-zA-Z0-9@\-_#$]+$`)
)

// Reason suffixes appended to the upper-snake field name.
const (
	suffixRequired = "_REQUIRED"
	suffixTooShort = "_TOO_SHORT"
	suffixTooLong  = "_TOO_LONG"
	suffixInvalid  = "_INVALID"
)

// Validator wraps go-playground/validator with catalog rules and fail-fast domain
// error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the catalog rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove options like omitempty, -
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	must(v.RegisterValidation("username", matches(usernamePattern)))
	must(v.RegisterValidation("personname", matches(personNamePattern)))
	must(v.RegisterValidation("volumename", matches(personNamePattern)))
	must(v.RegisterValidation("password", matches(passwordPattern)))
	must(v.RegisterValidation("novel_status", func(fl validator.FieldLevel) bool {
		return domain.NovelStatus(fl.Field().String()).Valid()
	}))
	must(v.RegisterValidation("novel_genre", func(fl validator.FieldLevel) bool {
		return domain.Genre(fl.Field().String()).Valid()
	}))
	must(v.RegisterValidation("novel_tag", func(fl validator.FieldLevel) bool {
		return domain.Tag(fl.Field().String()).Valid()
	}))
	must(v.RegisterValidation("block_tag", func(fl validator.FieldLevel) bool {
		return domain.BlockTag(fl.Field().String()).Valid()
	}))

	return &Validator{v: v}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Validate validates a struct and returns a VALIDATION domain error describing the
// first offending field.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Fields checks that every requested projection field is one of allowed.
func (v *Validator) Fields(allowed []string, fields []string) error {
	for _, f := range fields {
		if !slices.Contains(allowed, f) {
			return domainerrors.Validation("fields", "FIELDS"+suffixInvalid)
		}
	}
	return nil
}

// formatError converts the first validator error to a domain error.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "validate")
	}

	e := validationErrs[0]
	path := fieldPath(e.Namespace())
	return domainerrors.Validation(path, reasonFor(path, e))
}

// fieldPath drops the root struct name from a namespace such as
// "NewChapter.content[0].text".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func reasonFor(path string, e validator.FieldError) string {
	base := reasonBase(path)
	switch e.Tag() {
	case "required", "required_if":
		return base + suffixRequired
	case "min":
		if e.Kind() == reflect.Slice {
			return base + suffixRequired
		}
		return base + suffixTooShort
	case "max":
		return base + suffixTooLong
	default:
		return base + suffixInvalid
	}
}

// reasonBase turns "content[0].tag" into "CONTENT_TAG".
func reasonBase(path string) string {
	var b strings.Builder
	prevLower := false
	skip := false
	for _, r := range path {
		switch {
		case r == '[':
			skip = true
		case r == ']':
			skip = false
		case skip:
		case r == '.':
			b.WriteByte('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			prevLower = false
		default:
			b.WriteRune(unicode.ToUpper(r))
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}
