package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/gh-container/internal/packages"
	"github.com/temirov/gh-container/internal/utils"
)

const (
	applicationNameConstant                 = "gh-container"
	applicationShortDescriptionConstant     = "Manage GitHub Container Registry package versions"
	applicationLongDescriptionConstant      = "gh-container lists, filters, browses and deletes container package versions hosted on GitHub Packages."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	logFileFlagNameConstant                 = "log-file"
	logFileFlagUsageConstant                = "Also write logs to this rotating file."
	backendFlagNameConstant                 = "backend"
	backendFlagUsageConstant                = "Registry backend: gh or api."
	organizationFlagNameConstant            = "org"
	organizationFlagUsageConstant           = "Manage packages of this organization instead of the authenticated user."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonLogFileConfigKeyConstant          = commonConfigurationKeyConstant + ".log_file"
	environmentPrefixConstant               = "GHCONTAINER"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationBackendFieldConstant       = "backend"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	defaultConfigurationSearchPathConstant  = "."
	commandsBuildErrorTemplateConstant      = "unable to build package commands: %w"
	exitErrorTemplateConstant               = "Error: %v\n"
	defaultExitCodeConstant                 = 1
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common   ApplicationCommonConfiguration `mapstructure:"common"`
	Packages packages.Configuration         `mapstructure:",squash"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	logFileFlagValue      string
	backendFlagValue      string
	organizationFlagValue string
	commandsBuildError    error
}

// commandSetBuilder produces the subcommands attached to the root command.
type commandSetBuilder interface {
	Build() ([]*cobra.Command, error)
}

// ApplicationOption replaces collaborators of the package commands, mainly for tests.
type ApplicationOption func(builder *packages.CommandBuilder)

// NewApplication assembles a fully wired CLI application instance.
func NewApplication(options ...ApplicationOption) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(DefaultConfigurationDocument(), configurationTypeConstant)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          rejectUnknownAction,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFileFlagValue, logFileFlagNameConstant, "", logFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.backendFlagValue, backendFlagNameConstant, "", backendFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.organizationFlagValue, organizationFlagNameConstant, "", organizationFlagUsageConstant)

	packagesBuilder := packages.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() packages.Configuration {
			return application.configuration.Packages
		},
	}
	for _, option := range options {
		if option != nil {
			option(&packagesBuilder)
		}
	}

	application.commandsBuildError = attachCommands(cobraCommand, &packagesBuilder)
	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	if application.commandsBuildError != nil {
		return application.commandsBuildError
	}

	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Run executes the application with arguments, reports a failure as "Error: <message>" on errorOutput,
// and returns the process exit code.
func Run(arguments []string, errorOutput io.Writer) int {
	application := NewApplication()
	application.rootCommand.SetArgs(arguments)
	return reportExecution(application.Execute(), errorOutput)
}

func reportExecution(executionError error, errorOutput io.Writer) int {
	if executionError == nil {
		return 0
	}
	fmt.Fprintf(errorOutput, exitErrorTemplateConstant, executionError)
	return exitCode(executionError)
}

// exitCode propagates the exit code of a failed gh invocation.
func exitCode(executionError error) int {
	var exitCoder interface{ ExitCode() int }
	if errors.As(executionError, &exitCoder) {
		if code := exitCoder.ExitCode(); code > 0 {
			return code
		}
	}
	return defaultExitCodeConstant
}

func attachCommands(rootCommand *cobra.Command, builder commandSetBuilder) error {
	commands, buildError := builder.Build()
	if buildError != nil {
		return fmt.Errorf(commandsBuildErrorTemplateConstant, buildError)
	}
	rootCommand.AddCommand(commands...)
	return nil
}

// rejectUnknownAction fails for positionals that name no subcommand.
func rejectUnknownAction(_ *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return packages.UnknownActionError{Action: arguments[0]}
	}
	return nil
}

func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, applicationNameConstant))
	}
	return searchPaths
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelWarn),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
		commonLogFileConfigKeyConstant:   "",
	}
	for configurationKey, configurationValue := range packages.DefaultConfigurationValues() {
		defaultValues[configurationKey] = configurationValue
	}

	application.configuration = ApplicationConfiguration{}
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(utils.ExpandHomeDirectory(application.configurationFilePath), defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, logFileFlagNameConstant) {
		application.configuration.Common.LogFile = application.logFileFlagValue
	}
	if application.persistentFlagChanged(command, backendFlagNameConstant) {
		application.configuration.Packages.Registry.Backend = application.backendFlagValue
	}
	if application.persistentFlagChanged(command, organizationFlagNameConstant) {
		application.configuration.Packages.Registry.Owner = application.organizationFlagValue
	}
	application.configuration.Packages = application.configuration.Packages.Sanitize()

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
		utils.WithLogFile(utils.ExpandHomeDirectory(application.configuration.Common.LogFile)),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationBackendFieldConstant, application.configuration.Packages.Registry.Backend),
	)

	return nil
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
