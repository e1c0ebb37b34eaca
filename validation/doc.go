// Package validation validates typed configuration views with struct tags.
//
// Field names in error messages follow the `mapstructure` tag of the field,
// so a failure reads the same way the key is written in a configuration
// layer:
//
//	type AppSection struct {
//	    Name string `mapstructure:"name" validate:"required"`
//	}
//	err := validation.Validate(section) // INVALID_INPUT: name: is required
package validation
