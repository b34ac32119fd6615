package browse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/temirov/gh-container/internal/execshell"
)

const (
	terminalRequiredMessageConstant     = "browse requires an interactive terminal"
	sessionLoggerNotConfiguredMessage   = "browse session logger not configured"
	sessionCatalogNotConfiguredMessage  = "browse session catalog not configured"
	sessionExecutorNotConfiguredMessage = "browse session finder executor not configured"
	helpEnvironmentVariableConstant     = "GH_CONTAINER_BROWSE_HELP"
	headerLinesArgumentConstant         = "--header-lines=1"
	expectArgumentTemplateConstant      = "--expect=%s,%s"
	bindArgumentConstant                = "--bind"
	toggleHelpBindingTemplateConstant   = "%s:toggle-preview"
	hiddenPreviewArgumentConstant       = "--preview-window=hidden"
	previewArgumentConstant             = "--preview"
	previewCommandTemplateConstant      = "printf '%%s\\n' \"$%s\""
	helpLineTemplateConstant            = "%-8s %s"
	helpReloadDescriptionConstant       = "reload the version list"
	helpDeleteDescriptionConstant       = "delete the selected version"
	helpToggleDescriptionConstant       = "toggle this help"
	helpEnterKeyConstant                = "enter"
	helpEnterDescriptionConstant        = "print the selected row and exit"
	helpEscapeKeyConstant               = "esc"
	helpEscapeDescriptionConstant       = "exit"
	selectionOutputTemplateConstant     = "%s\n"
	listVersionsErrorTemplateConstant   = "unable to list versions of %s: %w"
	deleteVersionErrorTemplateConstant  = "unable to delete version %s of %s: %w"
	sessionEndedLogMessageConstant      = "browse session ended"
	finderInterruptedLogMessageConstant = "finder interrupted"
	versionDeletedLogMessageConstant    = "deleted version from browse session"
	reloadRequestedLogMessageConstant   = "reloading version list"
	emptySelectionLogMessageConstant    = "delete key pressed without a selection"
	logFieldPackageConstant             = "package"
	logFieldVersionIDConstant           = "version_id"
	logFieldExitCodeConstant            = "exit_code"
	finderNoMatchExitCodeConstant       = 1
	finderInterruptedExitCodeConstant   = 130
	helpTextLineSeparatorConstant       = "\n"
)

var (
	// ErrTerminalRequired indicates that browse was started without an interactive terminal.
	ErrTerminalRequired = errors.New(terminalRequiredMessageConstant)
	// ErrSessionLoggerNotConfigured indicates a missing logger.
	ErrSessionLoggerNotConfigured = errors.New(sessionLoggerNotConfiguredMessage)
	// ErrSessionCatalogNotConfigured indicates a missing catalog.
	ErrSessionCatalogNotConfigured = errors.New(sessionCatalogNotConfiguredMessage)
	// ErrSessionExecutorNotConfigured indicates a missing finder executor.
	ErrSessionExecutorNotConfigured = errors.New(sessionExecutorNotConfiguredMessage)
)

// Catalog supplies the version table shown in the finder and deletes selected versions.
// The table carries a header line and a PACKAGE column before the ID column.
type Catalog interface {
	VersionTable(executionContext context.Context, packageName string) (string, error)
	DeleteVersion(executionContext context.Context, packageName string, versionID string) error
}

// FinderExecutor launches the fuzzy finder.
type FinderExecutor interface {
	ExecuteFuzzyFinder(executionContext context.Context, finder string, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// TerminalDetector reports whether the process is attached to an interactive terminal.
type TerminalDetector func() bool

// Session runs the interactive version browser for one package.
type Session struct {
	logger           *zap.Logger
	catalog          Catalog
	executor         FinderExecutor
	configuration    Configuration
	terminalDetector TerminalDetector
	output           io.Writer
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithTerminalDetector replaces the standard input terminal check.
func WithTerminalDetector(detector TerminalDetector) SessionOption {
	return func(session *Session) {
		if detector != nil {
			session.terminalDetector = detector
		}
	}
}

// WithOutput sets the writer receiving the row chosen with enter.
func WithOutput(output io.Writer) SessionOption {
	return func(session *Session) {
		if output != nil {
			session.output = output
		}
	}
}

// NewSession constructs a Session.
func NewSession(logger *zap.Logger, catalog Catalog, executor FinderExecutor, configuration Configuration, options ...SessionOption) (*Session, error) {
	if logger == nil {
		return nil, ErrSessionLoggerNotConfigured
	}
	if catalog == nil {
		return nil, ErrSessionCatalogNotConfigured
	}
	if executor == nil {
		return nil, ErrSessionExecutorNotConfigured
	}

	session := &Session{
		logger:           logger,
		catalog:          catalog,
		executor:         executor,
		configuration:    configuration.Sanitize(),
		terminalDetector: StandardInputIsTerminal,
		output:           os.Stdout,
	}
	for _, option := range options {
		if option != nil {
			option(session)
		}
	}
	return session, nil
}

// StandardInputIsTerminal reports whether standard input is a terminal.
func StandardInputIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Run shows the version list in the finder until the user picks a row or leaves.
// The reload key rebuilds the list; the delete key removes the selected version and rebuilds the list.
func (session *Session) Run(executionContext context.Context, packageName string) error {
	if !session.terminalDetector() {
		return ErrTerminalRequired
	}

	packageField := zap.String(logFieldPackageConstant, packageName)
	for {
		versionTable, tableError := session.catalog.VersionTable(executionContext, packageName)
		if tableError != nil {
			return fmt.Errorf(listVersionsErrorTemplateConstant, packageName, tableError)
		}

		pressedKey, selectedRow, finished, finderError := session.runFinder(executionContext, versionTable)
		if finderError != nil {
			return finderError
		}

		switch {
		case pressedKey == session.configuration.Keys.Reload:
			session.logger.Debug(reloadRequestedLogMessageConstant, packageField)
			continue
		case pressedKey == session.configuration.Keys.Delete:
			versionID := selectedIdentifier(selectedRow)
			if len(versionID) == 0 {
				session.logger.Debug(emptySelectionLogMessageConstant, packageField)
				continue
			}
			if deleteError := session.catalog.DeleteVersion(executionContext, packageName, versionID); deleteError != nil {
				return fmt.Errorf(deleteVersionErrorTemplateConstant, versionID, packageName, deleteError)
			}
			session.logger.Info(versionDeletedLogMessageConstant, packageField, zap.String(logFieldVersionIDConstant, versionID))
			continue
		case finished:
			session.logger.Debug(sessionEndedLogMessageConstant, packageField)
			return nil
		}

		if len(selectedRow) > 0 {
			if _, writeError := fmt.Fprintf(session.output, selectionOutputTemplateConstant, selectedRow); writeError != nil {
				return writeError
			}
		}
		return nil
	}
}

// runFinder launches the finder once. finished reports that the user left without choosing a row.
func (session *Session) runFinder(executionContext context.Context, versionTable string) (string, string, bool, error) {
	details := execshell.CommandDetails{
		Arguments:            session.finderArguments(),
		EnvironmentVariables: map[string]string{helpEnvironmentVariableConstant: session.helpText()},
		StandardInput:        []byte(versionTable),
		Interactive:          true,
	}

	executionResult, executionError := session.executor.ExecuteFuzzyFinder(executionContext, session.configuration.Finder, details)
	if executionError == nil {
		pressedKey, selectedRow := parseFinderOutput(executionResult.StandardOutput)
		return pressedKey, selectedRow, false, nil
	}

	var failedError execshell.CommandFailedError
	if !errors.As(executionError, &failedError) {
		return "", "", false, executionError
	}

	switch failedError.Result.ExitCode {
	case finderNoMatchExitCodeConstant:
		pressedKey, _ := parseFinderOutput(failedError.Result.StandardOutput)
		return pressedKey, "", true, nil
	case finderInterruptedExitCodeConstant:
		session.logger.Debug(finderInterruptedLogMessageConstant, zap.Int(logFieldExitCodeConstant, failedError.Result.ExitCode))
		return "", "", true, nil
	default:
		return "", "", false, executionError
	}
}

func (session *Session) finderArguments() []string {
	keys := session.configuration.Keys
	return []string{
		headerLinesArgumentConstant,
		fmt.Sprintf(expectArgumentTemplateConstant, keys.Reload, keys.Delete),
		bindArgumentConstant,
		fmt.Sprintf(toggleHelpBindingTemplateConstant, keys.Help),
		hiddenPreviewArgumentConstant,
		previewArgumentConstant,
		fmt.Sprintf(previewCommandTemplateConstant, helpEnvironmentVariableConstant),
	}
}

func (session *Session) helpText() string {
	keys := session.configuration.Keys
	lines := []string{
		fmt.Sprintf(helpLineTemplateConstant, keys.Reload, helpReloadDescriptionConstant),
		fmt.Sprintf(helpLineTemplateConstant, keys.Delete, helpDeleteDescriptionConstant),
		fmt.Sprintf(helpLineTemplateConstant, keys.Help, helpToggleDescriptionConstant),
		fmt.Sprintf(helpLineTemplateConstant, helpEnterKeyConstant, helpEnterDescriptionConstant),
		fmt.Sprintf(helpLineTemplateConstant, helpEscapeKeyConstant, helpEscapeDescriptionConstant),
	}
	return strings.Join(lines, helpTextLineSeparatorConstant)
}

// parseFinderOutput splits fzf --expect output into the pressed key (empty for enter) and the selected row.
func parseFinderOutput(output string) (string, string) {
	lines := strings.SplitN(output, "\n", 3)
	pressedKey := strings.TrimSpace(lines[0])
	if len(lines) < 2 {
		return pressedKey, ""
	}
	return pressedKey, strings.TrimSpace(lines[1])
}

// selectedIdentifier returns the ID column, which follows the PACKAGE column.
func selectedIdentifier(selectedRow string) string {
	fields := strings.Fields(selectedRow)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
