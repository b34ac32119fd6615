package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	fallbackUnknownValueLabelConstant       = "unknown"
	endpointPathSeparatorConstant           = "/"
	endpointQuerySeparatorConstant          = "?"
)

const (
	githubAPICommandNameConstant           = "api"
	githubAuthCommandNameConstant          = "auth"
	githubAuthStatusSubcommandNameConstant = "status"
	githubMethodFlagConstant               = "-X"
	githubDeleteMethodConstant             = "DELETE"
	githubPackagesSegmentConstant          = "packages"
	githubVersionsSegmentConstant          = "versions"
	githubAuthenticatedUserLabelConstant   = "the authenticated user"
)

const (
	packageListStartTemplateConstant              = "Listing packages of %s"
	packageListSuccessTemplateConstant            = "Listed packages of %s"
	packageListFailureTemplateConstant            = "Failed to list packages of %s (exit code %d%s)"
	packageListExecutionFailureTemplateConstant   = "Unable to list packages of %s: %s"
	versionListStartTemplateConstant              = "Listing versions of %s"
	versionListSuccessTemplateConstant            = "Listed versions of %s"
	versionListFailureTemplateConstant            = "Failed to list versions of %s (exit code %d%s)"
	versionListExecutionFailureTemplateConstant   = "Unable to list versions of %s: %s"
	versionDeleteStartTemplateConstant            = "Deleting version %s of %s"
	versionDeleteSuccessTemplateConstant          = "Deleted version %s of %s"
	versionDeleteFailureTemplateConstant          = "Failed to delete version %s of %s (exit code %d%s)"
	versionDeleteExecutionFailureTemplateConstant = "Unable to delete version %s of %s: %s"
	authStatusStartMessageConstant                = "Checking GitHub CLI authentication"
	authStatusSuccessMessageConstant              = "GitHub CLI is authenticated"
	authStatusFailureTemplateConstant             = "GitHub CLI authentication check failed (exit code %d%s)"
	authStatusExecutionFailureTemplateConstant    = "Unable to check GitHub CLI authentication: %s"
	finderStartTemplateConstant                   = "Opening %s"
	finderSuccessTemplateConstant                 = "Closed %s"
	finderFailureTemplateConstant                 = "%s exited with code %d"
	finderExecutionFailureTemplateConstant        = "Unable to open %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGitHub:
		return formatter.describeGitHubMessage(command, result, failure, stage)
	case CommandFuzzyFinder:
		return formatter.describeFinderMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitHubMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(arguments[0]) {
	case githubAPICommandNameConstant:
		return formatter.describeGitHubAPICommand(command, result, failure, stage)
	case githubAuthCommandNameConstant:
		if len(arguments) > 1 && strings.TrimSpace(arguments[1]) == githubAuthStatusSubcommandNameConstant {
			return formatter.describeAuthStatus(result, failure, stage)
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitHubAPICommand(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	endpoint := findEndpointArgument(arguments)
	if len(endpoint) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	segments := splitEndpoint(endpoint)
	packagesIndex := indexOfSegment(segments, githubPackagesSegmentConstant)
	if packagesIndex < 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	remaining := segments[packagesIndex+1:]
	switch {
	case len(remaining) == 0:
		return formatter.describeSubject(packageListTemplates, describeOwner(segments[:packagesIndex]), result, failure, stage)
	case len(remaining) == 3 && remaining[2] == githubVersionsSegmentConstant:
		return formatter.describeSubject(versionListTemplates, remaining[1], result, failure, stage)
	case len(remaining) == 4 && remaining[2] == githubVersionsSegmentConstant && findFlagValue(arguments, githubMethodFlagConstant) == githubDeleteMethodConstant:
		packageName := remaining[1]
		versionIdentifier := remaining[3]
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(versionDeleteStartTemplateConstant, versionIdentifier, packageName)
		case messageStageSuccess:
			return fmt.Sprintf(versionDeleteSuccessTemplateConstant, versionIdentifier, packageName)
		case messageStageFailure:
			return fmt.Sprintf(versionDeleteFailureTemplateConstant, versionIdentifier, packageName, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(versionDeleteExecutionFailureTemplateConstant, versionIdentifier, packageName, formatter.describeFailure(failure))
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeAuthStatus(result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return authStatusStartMessageConstant
	case messageStageSuccess:
		return authStatusSuccessMessageConstant
	case messageStageFailure:
		return fmt.Sprintf(authStatusFailureTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(authStatusExecutionFailureTemplateConstant, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeFinderMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	finderName := string(command.Name)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(finderStartTemplateConstant, finderName)
	case messageStageSuccess:
		return fmt.Sprintf(finderSuccessTemplateConstant, finderName)
	case messageStageFailure:
		return fmt.Sprintf(finderFailureTemplateConstant, finderName, result.ExitCode)
	default:
		return fmt.Sprintf(finderExecutionFailureTemplateConstant, finderName, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = commandLabel + commandArgumentsJoinSeparatorConstant + strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var (
	packageListTemplates = stageTemplates{
		start:            packageListStartTemplateConstant,
		success:          packageListSuccessTemplateConstant,
		failure:          packageListFailureTemplateConstant,
		executionFailure: packageListExecutionFailureTemplateConstant,
	}
	versionListTemplates = stageTemplates{
		start:            versionListStartTemplateConstant,
		success:          versionListSuccessTemplateConstant,
		failure:          versionListFailureTemplateConstant,
		executionFailure: versionListExecutionFailureTemplateConstant,
	}
)

func (formatter CommandMessageFormatter) describeSubject(templates stageTemplates, subject string, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, subject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(templates.executionFailure, subject, formatter.describeFailure(failure))
	}
}

// findEndpointArgument returns the first positional argument after "api", skipping flags and their values.
func findEndpointArgument(arguments []string) string {
	for index := 1; index < len(arguments); index++ {
		argument := strings.TrimSpace(arguments[index])
		if strings.HasPrefix(argument, "-") {
			if !strings.Contains(argument, "=") && flagTakesValue(argument) {
				index++
			}
			continue
		}
		return argument
	}
	return emptyStringConstant
}

func flagTakesValue(flag string) bool {
	switch flag {
	case "-X", "--method", "-H", "--header", "--jq", "-q", "--input", "-f", "-F", "--field", "--raw-field", "--hostname", "--template", "-t", "--cache":
		return true
	default:
		return false
	}
}

func splitEndpoint(endpoint string) []string {
	pathPortion := endpoint
	if queryIndex := strings.Index(pathPortion, endpointQuerySeparatorConstant); queryIndex >= 0 {
		pathPortion = pathPortion[:queryIndex]
	}
	rawSegments := strings.Split(strings.Trim(pathPortion, endpointPathSeparatorConstant), endpointPathSeparatorConstant)
	segments := make([]string, 0, len(rawSegments))
	for _, segment := range rawSegments {
		if len(segment) == 0 {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}

func indexOfSegment(segments []string, value string) int {
	for index, segment := range segments {
		if segment == value {
			return index
		}
	}
	return -1
}

func describeOwner(ownerSegments []string) string {
	if len(ownerSegments) == 2 {
		return ownerSegments[1]
	}
	if len(ownerSegments) == 1 {
		return githubAuthenticatedUserLabelConstant
	}
	return fallbackUnknownValueLabelConstant
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
