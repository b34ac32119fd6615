package packages

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gh-container/internal/browse"
	"github.com/temirov/gh-container/internal/execshell"
	"github.com/temirov/gh-container/internal/ghcr"
	"github.com/temirov/gh-container/internal/ui"
	"github.com/temirov/gh-container/internal/utils"
	"github.com/temirov/gh-container/internal/utils/flags"
)

const (
	listCommandUseConstant                  = "list"
	listCommandShortDescriptionConstant     = "List container packages"
	listCommandLongDescriptionConstant      = "list prints the container packages owned by the authenticated user or the selected organization."
	versionsCommandUseConstant              = "versions <package-name>"
	versionsCommandShortDescriptionConstant = "List versions of a container package"
	versionsCommandLongDescriptionConstant  = "versions prints a table of package versions with their ID, digest, last update and tags."
	cleanCommandUseConstant                 = "clean <package-name> [version-id]"
	cleanCommandShortDescriptionConstant    = "Delete versions of a container package"
	cleanCommandLongDescriptionConstant     = "clean deletes the given version, or every untagged version with --untagged, one at a time."
	browseCommandUseConstant                = "browse <package-name>"
	browseCommandShortDescriptionConstant   = "Browse versions of a container package interactively"
	browseCommandLongDescriptionConstant    = "browse opens the versions in a fuzzy finder where versions can be reloaded, deleted or selected."
	versionsCommandNameConstant             = "versions"
	cleanCommandNameConstant                = "clean"
	browseCommandNameConstant               = "browse"
	packageNameArgumentConstant             = "package-name"
	untaggedFlagNameConstant                = "untagged"
	untaggedFlagShorthandConstant           = "u"
	untaggedVersionsFlagDescription         = "Only list versions without tags"
	untaggedCleanFlagDescriptionConstant    = "Delete every version without tags"
	taggedFlagNameConstant                  = "tagged"
	taggedFlagDescriptionConstant           = "Only list versions with at least one tag"
	showPackageNameFlagNameConstant         = "show-pkg-name"
	showPackageNameFlagDescription          = "Prefix every row with the package name"
	formatFlagNameConstant                  = "format"
	formatFlagDescriptionConstant           = "Output format"
	dryRunFlagNameConstant                  = "dry-run"
	dryRunFlagDescriptionConstant           = "Print the versions that would be deleted without deleting them"
	packageNameLineTemplateConstant         = "%s\n"
	listPackagesErrorTemplateConstant       = "unable to list packages of %s: %w"
	listVersionsErrorTemplateConstant       = "unable to list versions of %s: %w"
	commandLoggerFieldConstant              = "command"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current package command configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the package subcommands.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	RegistryResolver      RegistryResolver
	// CommandRunner starts gh and the fuzzy finder; nil uses the operating system.
	CommandRunner execshell.CommandRunner
	// FinderExecutor replaces the shell executor launching the fuzzy finder.
	FinderExecutor   browse.FinderExecutor
	TerminalDetector browse.TerminalDetector
}

// Build constructs the list, versions, clean and browse commands.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	listCommand := &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortDescriptionConstant,
		Long:  listCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runList,
	}
	addFormatFlag(listCommand)

	versionsCommand := &cobra.Command{
		Use:   versionsCommandUseConstant,
		Short: versionsCommandShortDescriptionConstant,
		Long:  versionsCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.runVersions,
	}
	versionsCommand.Flags().BoolP(untaggedFlagNameConstant, untaggedFlagShorthandConstant, false, untaggedVersionsFlagDescription)
	versionsCommand.Flags().Bool(taggedFlagNameConstant, false, taggedFlagDescriptionConstant)
	versionsCommand.Flags().Bool(showPackageNameFlagNameConstant, false, showPackageNameFlagDescription)
	addFormatFlag(versionsCommand)

	cleanCommand := &cobra.Command{
		Use:   cleanCommandUseConstant,
		Short: cleanCommandShortDescriptionConstant,
		Long:  cleanCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(2),
		RunE:  builder.runClean,
	}
	cleanCommand.Flags().BoolP(untaggedFlagNameConstant, untaggedFlagShorthandConstant, false, untaggedCleanFlagDescriptionConstant)
	cleanCommand.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagDescriptionConstant)

	browseCommand := &cobra.Command{
		Use:   browseCommandUseConstant,
		Short: browseCommandShortDescriptionConstant,
		Long:  browseCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.runBrowse,
	}

	return []*cobra.Command{listCommand, versionsCommand, cleanCommand, browseCommand}, nil
}

func addFormatFlag(command *cobra.Command) {
	command.Flags().String(
		formatFlagNameConstant,
		string(ui.OutputFormatTable),
		flags.FormatChoiceUsage(string(ui.OutputFormatTable), ui.OutputFormatChoices(), formatFlagDescriptionConstant),
	)
}

func (builder *CommandBuilder) runList(command *cobra.Command, _ []string) error {
	outputFormat, formatError := parseOutputFormat(command)
	if formatError != nil {
		return formatError
	}

	service, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}

	packageNames, listError := service.ListPackages(command.Context())
	if listError != nil {
		return fmt.Errorf(listPackagesErrorTemplateConstant, service.listingOwner(), listError)
	}

	writer := utils.NewProgressWriter(command.OutOrStdout())
	if outputFormat != ui.OutputFormatTable {
		return ui.RenderStructured(writer, outputFormat, packageNames)
	}
	for _, packageName := range packageNames {
		if _, writeError := fmt.Fprintf(writer, packageNameLineTemplateConstant, packageName); writeError != nil {
			return writeError
		}
	}
	return nil
}

func (builder *CommandBuilder) runVersions(command *cobra.Command, arguments []string) error {
	packageName, nameError := requirePackageName(command, versionsCommandNameConstant, arguments)
	if nameError != nil {
		return nameError
	}

	untaggedOnly, untaggedError := command.Flags().GetBool(untaggedFlagNameConstant)
	if untaggedError != nil {
		return untaggedError
	}
	taggedOnly, taggedError := command.Flags().GetBool(taggedFlagNameConstant)
	if taggedError != nil {
		return taggedError
	}
	showPackageName, showPackageNameError := command.Flags().GetBool(showPackageNameFlagNameConstant)
	if showPackageNameError != nil {
		return showPackageNameError
	}
	if untaggedOnly && taggedOnly {
		return ghcr.ErrConflictingFilters
	}

	outputFormat, formatError := parseOutputFormat(command)
	if formatError != nil {
		return formatError
	}

	service, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}

	versions, query, listError := service.ListVersions(command.Context(), VersionsOptions{
		PackageName:     packageName,
		UntaggedOnly:    untaggedOnly,
		TaggedOnly:      taggedOnly,
		ShowPackageName: showPackageName,
	})
	if listError != nil {
		return fmt.Errorf(listVersionsErrorTemplateConstant, packageName, listError)
	}

	writer := utils.NewProgressWriter(command.OutOrStdout())
	if outputFormat == ui.OutputFormatTable {
		return ui.RenderTable(writer, query.Headers(), query.Rows(versions))
	}
	return ui.RenderStructured(writer, outputFormat, newVersionDocuments(query, versions))
}

func (builder *CommandBuilder) runClean(command *cobra.Command, arguments []string) error {
	packageName, nameError := requirePackageName(command, cleanCommandNameConstant, arguments)
	if nameError != nil {
		return nameError
	}

	versionID := ""
	if len(arguments) > 1 {
		versionID = strings.TrimSpace(arguments[1])
	}

	untaggedOnly, untaggedError := command.Flags().GetBool(untaggedFlagNameConstant)
	if untaggedError != nil {
		return untaggedError
	}

	dryRun := builder.resolveConfiguration().Clean.DryRun
	if command.Flags().Changed(dryRunFlagNameConstant) {
		dryRunFlagValue, dryRunError := command.Flags().GetBool(dryRunFlagNameConstant)
		if dryRunError != nil {
			return dryRunError
		}
		dryRun = dryRunFlagValue
	}

	service, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}

	_, cleanError := service.Clean(command.Context(), CleanOptions{
		PackageName:  packageName,
		VersionID:    versionID,
		UntaggedOnly: untaggedOnly,
		DryRun:       dryRun,
	})
	return cleanError
}

func (builder *CommandBuilder) runBrowse(command *cobra.Command, arguments []string) error {
	packageName, nameError := requirePackageName(command, browseCommandNameConstant, arguments)
	if nameError != nil {
		return nameError
	}

	logger := builder.resolveLogger().With(zap.String(commandLoggerFieldConstant, browseCommandNameConstant))
	service, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}

	finderExecutor := builder.FinderExecutor
	if finderExecutor == nil {
		shellExecutor, executorError := newShellExecutor(logger, builder.CommandRunner)
		if executorError != nil {
			return executorError
		}
		finderExecutor = shellExecutor
	}

	session, sessionError := browse.NewSession(
		logger,
		browseCatalog{service: service},
		finderExecutor,
		builder.resolveConfiguration().Browse,
		browse.WithTerminalDetector(builder.TerminalDetector),
		browse.WithOutput(utils.NewProgressWriter(command.OutOrStdout())),
	)
	if sessionError != nil {
		return sessionError
	}

	return session.Run(command.Context(), packageName)
}

func (builder *CommandBuilder) resolveService(command *cobra.Command) (*Service, error) {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	resolver := builder.RegistryResolver
	if resolver == nil {
		resolver = &DefaultRegistryResolver{CommandRunner: builder.CommandRunner}
	}

	registry, registryError := resolver.ResolveRegistry(command.Context(), logger, configuration.Registry)
	if registryError != nil {
		return nil, registryError
	}

	return NewService(logger, registry, ServiceConfiguration{
		PackageType:       configuration.Registry.PackageType,
		Organization:      configuration.Registry.Owner,
		RequestsPerSecond: configuration.Clean.RequestsPerSecond,
		Output:            command.OutOrStdout(),
	})
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}

	return builder.ConfigurationProvider().Sanitize()
}

// requirePackageName prints the command help and fails when the package name is absent.
func requirePackageName(command *cobra.Command, commandName string, arguments []string) (string, error) {
	if len(arguments) > 0 && len(strings.TrimSpace(arguments[0])) > 0 {
		return strings.TrimSpace(arguments[0]), nil
	}
	if helpError := command.Help(); helpError != nil {
		return "", helpError
	}
	return "", MissingArgumentError{Command: commandName, Argument: packageNameArgumentConstant}
}

func parseOutputFormat(command *cobra.Command) (ui.OutputFormat, error) {
	formatValue, formatError := command.Flags().GetString(formatFlagNameConstant)
	if formatError != nil {
		return "", formatError
	}
	parsedFormat, parseError := flags.ParseChoice(formatFlagNameConstant, formatValue, string(ui.OutputFormatTable), ui.OutputFormatChoices())
	if parseError != nil {
		return "", parseError
	}
	return ui.OutputFormat(parsedFormat), nil
}

type versionDocument struct {
	Package             string `json:"package,omitempty" yaml:"package,omitempty"`
	ghcr.PackageVersion `yaml:",inline"`
}

func newVersionDocuments(query ghcr.VersionQuery, versions []ghcr.PackageVersion) []versionDocument {
	documents := make([]versionDocument, 0, len(versions))
	for _, version := range versions {
		document := versionDocument{PackageVersion: version}
		if query.Filter.IncludePackageName {
			document.Package = query.PackageName
		}
		documents = append(documents, document)
	}
	return documents
}

// browseCatalog serves the browser from the package service with the PACKAGE column shown.
type browseCatalog struct {
	service *Service
}

func (catalog browseCatalog) VersionTable(executionContext context.Context, packageName string) (string, error) {
	versions, query, listError := catalog.service.ListVersions(executionContext, VersionsOptions{PackageName: packageName, ShowPackageName: true})
	if listError != nil {
		return "", listError
	}
	return ui.FormatTable(query.Headers(), query.Rows(versions)), nil
}

func (catalog browseCatalog) DeleteVersion(executionContext context.Context, packageName string, versionID string) error {
	_, cleanError := catalog.service.Clean(executionContext, CleanOptions{PackageName: packageName, VersionID: versionID})
	return cleanError
}
