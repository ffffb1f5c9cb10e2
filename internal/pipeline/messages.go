package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// GenericErrorMessage is shown for any failure the user cannot fix.
const GenericErrorMessage = "An error occurred during prediction. Please check your inputs and try again."

// UserMessage converts a run error into text safe to show the user.
// Configuration and model faults never leak their details.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	if msgs := ValidationMessages(err); len(msgs) > 0 {
		return "Invalid input: " + strings.Join(msgs, "; ")
	}

	var unknown *utils.UnknownCategoryError
	if errors.As(err, &unknown) {
		return fmt.Sprintf("The selected %s %q is not supported by the current model. Please choose a different value.",
			strings.ReplaceAll(unknown.Field, "_", " "), unknown.Value)
	}

	return GenericErrorMessage
}

// ValidationMessages flattens every ValidationError in err, including those
// joined by the collector.
func ValidationMessages(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if v, ok := e.(*utils.ValidationError); ok {
			out = append(out, v.Error())
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

// IsUserError reports whether err was caused by the request rather than by
// the deployment.
func IsUserError(err error) bool {
	var (
		validation *utils.ValidationError
		unknown    *utils.UnknownCategoryError
	)
	return errors.As(err, &validation) || errors.As(err, &unknown)
}
