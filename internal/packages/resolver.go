package packages

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/gh-container/internal/execshell"
	"github.com/temirov/gh-container/internal/ghcr"
	"github.com/temirov/gh-container/internal/githubcli"
	"github.com/temirov/gh-container/internal/ui"
)

const (
	unsupportedBackendTemplateConstant    = "unsupported registry backend %q (expected gh|api)"
	tokenSourceParseErrorTemplateConstant = "invalid token source: %w"
	tokenResolutionErrorTemplateConstant  = "unable to resolve api token: %w"
	backendResolvedLogMessageConstant     = "registry backend selected"
	logFieldBackendConstant               = "backend"
)

// RegistryResolver creates the registry backend named by configuration.
type RegistryResolver interface {
	ResolveRegistry(executionContext context.Context, logger *zap.Logger, configuration RegistryConfiguration) (ghcr.Registry, error)
}

// DefaultRegistryResolver builds gh or REST backed registries from configuration.
type DefaultRegistryResolver struct {
	CommandRunner     execshell.CommandRunner
	EnvironmentLookup EnvironmentLookup
	FileSystem        afero.Fs
	TokenResolver     TokenResolver
	Transport         http.RoundTripper
}

// ResolveRegistry selects the backend and wires its collaborators.
func (resolver *DefaultRegistryResolver) ResolveRegistry(executionContext context.Context, logger *zap.Logger, configuration RegistryConfiguration) (ghcr.Registry, error) {
	switch configuration.Backend {
	case BackendGitHubCLI, "":
		logger.Debug(backendResolvedLogMessageConstant, zap.String(logFieldBackendConstant, BackendGitHubCLI))
		return resolver.resolveCLIRegistry(logger)
	case BackendRESTAPI:
		logger.Debug(backendResolvedLogMessageConstant, zap.String(logFieldBackendConstant, BackendRESTAPI))
		return resolver.resolveRESTRegistry(executionContext, logger, configuration.API)
	default:
		return nil, fmt.Errorf(unsupportedBackendTemplateConstant, configuration.Backend)
	}
}

func (resolver *DefaultRegistryResolver) resolveCLIRegistry(logger *zap.Logger) (ghcr.Registry, error) {
	shellExecutor, executorError := newShellExecutor(logger, resolver.CommandRunner)
	if executorError != nil {
		return nil, executorError
	}

	githubClient, clientError := githubcli.NewClient(shellExecutor)
	if clientError != nil {
		return nil, clientError
	}

	registry, registryError := ghcr.NewCLIRegistry(logger, githubClient)
	if registryError != nil {
		return nil, registryError
	}
	return registry, nil
}

func (resolver *DefaultRegistryResolver) resolveRESTRegistry(executionContext context.Context, logger *zap.Logger, configuration APIConfiguration) (ghcr.Registry, error) {
	tokenSource, parseError := ParseTokenSource(configuration.TokenSource)
	if parseError != nil {
		return nil, fmt.Errorf(tokenSourceParseErrorTemplateConstant, parseError)
	}

	tokenResolver := resolver.TokenResolver
	if tokenResolver == nil {
		tokenResolver = NewTokenResolver(resolver.EnvironmentLookup, resolver.FileSystem)
	}

	token, tokenError := tokenResolver.ResolveToken(executionContext, tokenSource)
	if tokenError != nil {
		return nil, fmt.Errorf(tokenResolutionErrorTemplateConstant, tokenError)
	}

	registry, registryError := ghcr.NewRESTRegistry(logger, ghcr.RESTConfiguration{
		BaseURL:   configuration.BaseURL,
		Token:     token,
		PageSize:  configuration.PageSize,
		Timeout:   configuration.Timeout,
		Transport: resolver.Transport,
	})
	if registryError != nil {
		return nil, registryError
	}
	return registry, nil
}

// newShellExecutor runs external tools through runner, reporting their lifecycle on the console logger.
func newShellExecutor(logger *zap.Logger, runner execshell.CommandRunner) (*execshell.ShellExecutor, error) {
	resolvedRunner := runner
	if resolvedRunner == nil {
		resolvedRunner = execshell.NewOSCommandRunner()
	}
	return execshell.NewShellExecutor(logger, resolvedRunner, ui.NewConsoleCommandEventLogger(logger))
}
