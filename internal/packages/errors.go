package packages

import "fmt"

const (
	unknownActionErrorTemplateConstant   = "Unknown action: %s"
	missingArgumentErrorTemplateConstant = "missing required argument <%s> for %s"
)

// UnknownActionError reports an unrecognized subcommand.
type UnknownActionError struct {
	Action string
}

// Error describes the unknown action.
func (actionError UnknownActionError) Error() string {
	return fmt.Sprintf(unknownActionErrorTemplateConstant, actionError.Action)
}

// MissingArgumentError reports a required positional argument that was not supplied.
type MissingArgumentError struct {
	Command  string
	Argument string
}

// Error describes the missing argument.
func (argumentError MissingArgumentError) Error() string {
	return fmt.Sprintf(missingArgumentErrorTemplateConstant, argumentError.Argument, argumentError.Command)
}
