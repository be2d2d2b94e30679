package notebook

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidNotebook is returned for documents that are not notebook JSON
// or whose cells and outputs do not have a known shape.
var ErrInvalidNotebook = errors.New("invalid notebook")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateOutput, Output{})
	return v
}

// validateOutput requires a stream name on stream outputs.
func validateOutput(sl validator.StructLevel) {
	out, ok := sl.Current().Interface().(Output)
	if !ok {
		return
	}
	if out.OutputType == OutputStream && out.Name == "" {
		sl.ReportError(out.Name, "Name", "name", "stream_name", "")
	}
}

// Validate checks cell and output types. The nbformat version is not checked.
func Validate(nb *Notebook) error {
	if err := validate.Struct(nb); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNotebook, err)
	}
	return nil
}
