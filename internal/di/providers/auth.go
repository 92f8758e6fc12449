package providers

import (
	"github.com/samber/do/v2"

	"github.com/shadownovel/catalog/internal/auth"
	"github.com/shadownovel/catalog/internal/validation"
)

// ProvideHasher provides the password hasher.
func ProvideHasher(i do.Injector) (*auth.Hasher, error) {
	return auth.NewHasher(), nil
}

// ProvideValidator provides the shared input validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
