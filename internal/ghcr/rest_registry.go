package ghcr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"github.com/rs/dnscache"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	defaultRESTBaseURLConstant                     = "https://api.github.com/"
	defaultRESTPageSizeConstant                    = 100
	maximumRESTPageSizeConstant                    = 100
	defaultRESTTimeoutConstant                     = 30 * time.Second
	dialerTimeoutConstant                          = 10 * time.Second
	dialerKeepAliveConstant                        = 30 * time.Second
	idleConnectionTimeoutConstant                  = 90 * time.Second
	maximumIdleConnectionsConstant                 = 10
	baseURLPathSuffixConstant                      = "/"
	versionsPageQueryTemplateConstant              = "%s?per_page=%d&page=%d"
	restRegistryLoggerNotConfiguredMessageConstant = "api registry logger not configured"
	restRegistryTokenMissingMessageConstant        = "api registry token not configured"
	invalidBaseURLTemplateConstant                 = "invalid api base url %q: %w"
	dialFailedTemplateConstant                     = "unable to dial %s: no resolved address accepted the connection"
	currentUserOperationNameConstant               = "resolve authenticated user"
	emptyLoginMessageConstant                      = "GET /user returned no login"
	restBackendLogValueConstant                    = "api"
	httpMethodGetConstant                          = "GET"
	httpMethodDeleteConstant                       = "DELETE"
)

var (
	// ErrRESTRegistryLoggerNotConfigured indicates a missing logger.
	ErrRESTRegistryLoggerNotConfigured = errors.New(restRegistryLoggerNotConfiguredMessageConstant)
	// ErrRESTRegistryTokenMissing indicates that no API token was supplied.
	ErrRESTRegistryTokenMissing = errors.New(restRegistryTokenMissingMessageConstant)
)

// RESTConfiguration tunes the REST registry client.
type RESTConfiguration struct {
	BaseURL  string
	Token    string
	PageSize int
	Timeout  time.Duration
	// Transport replaces the DNS-caching transport, mainly for tests.
	Transport http.RoundTripper
}

// RESTRegistry serves registry calls through the GitHub REST API.
type RESTRegistry struct {
	logger   *zap.Logger
	client   *github.Client
	pageSize int
}

type restPackageVersion struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Metadata  struct {
		Container struct {
			Tags []string `json:"tags"`
		} `json:"container"`
	} `json:"metadata"`
}

// NewRESTRegistry constructs a RESTRegistry authenticated with a static token.
func NewRESTRegistry(logger *zap.Logger, configuration RESTConfiguration) (*RESTRegistry, error) {
	if logger == nil {
		return nil, ErrRESTRegistryLoggerNotConfigured
	}

	token := strings.TrimSpace(configuration.Token)
	if len(token) == 0 {
		return nil, ErrRESTRegistryTokenMissing
	}

	baseURLValue := strings.TrimSpace(configuration.BaseURL)
	if len(baseURLValue) == 0 {
		baseURLValue = defaultRESTBaseURLConstant
	}
	if !strings.HasSuffix(baseURLValue, baseURLPathSuffixConstant) {
		baseURLValue += baseURLPathSuffixConstant
	}
	baseURL, parseError := url.Parse(baseURLValue)
	if parseError != nil {
		return nil, fmt.Errorf(invalidBaseURLTemplateConstant, baseURLValue, parseError)
	}

	pageSize := configuration.PageSize
	if pageSize <= 0 || pageSize > maximumRESTPageSizeConstant {
		pageSize = defaultRESTPageSizeConstant
	}

	timeout := configuration.Timeout
	if timeout <= 0 {
		timeout = defaultRESTTimeoutConstant
	}

	baseTransport := configuration.Transport
	if baseTransport == nil {
		baseTransport = newDNSCachingTransport()
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   baseTransport,
		},
	}

	githubClient := github.NewClient(httpClient)
	githubClient.BaseURL = baseURL

	return &RESTRegistry{logger: logger, client: githubClient, pageSize: pageSize}, nil
}

// newDNSCachingTransport resolves hosts through a process-local DNS cache.
// The CLI is short lived, so the cache is never refreshed.
func newDNSCachingTransport() *http.Transport {
	resolver := &dnscache.Resolver{}
	dialer := &net.Dialer{Timeout: dialerTimeoutConstant, KeepAlive: dialerKeepAliveConstant}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(dialContext context.Context, network string, address string) (net.Conn, error) {
			host, port, splitError := net.SplitHostPort(address)
			if splitError != nil {
				return nil, splitError
			}
			addresses, lookupError := resolver.LookupHost(dialContext, host)
			if lookupError != nil {
				return nil, lookupError
			}
			var lastDialError error
			for _, resolvedAddress := range addresses {
				connection, dialError := dialer.DialContext(dialContext, network, net.JoinHostPort(resolvedAddress, port))
				if dialError == nil {
					return connection, nil
				}
				lastDialError = dialError
			}
			if lastDialError != nil {
				return nil, lastDialError
			}
			return nil, fmt.Errorf(dialFailedTemplateConstant, address)
		},
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        maximumIdleConnectionsConstant,
		MaxIdleConnsPerHost: maximumIdleConnectionsConstant,
		IdleConnTimeout:     idleConnectionTimeoutConstant,
	}
}

// ListPackages returns the names of every package of packageType owned by owner.
func (registry *RESTRegistry) ListPackages(executionContext context.Context, owner Owner, packageType string) ([]string, error) {
	listOptions := &github.PackageListOptions{
		PackageType: github.Ptr(packageType),
		ListOptions: github.ListOptions{PerPage: registry.pageSize},
	}

	packageNames := make([]string, 0)
	for {
		var (
			packagesPage []*github.Package
			response     *github.Response
			listError    error
		)
		if owner.IsOrganization() {
			packagesPage, response, listError = registry.client.Organizations.ListPackages(executionContext, owner.Name, listOptions)
		} else {
			packagesPage, response, listError = registry.client.Users.ListPackages(executionContext, "", listOptions)
		}
		if listError != nil {
			return nil, translateRESTError(listPackagesOperationNameConstant, listError)
		}

		for _, packageEntry := range packagesPage {
			packageNames = append(packageNames, packageEntry.GetName())
		}

		if response == nil || response.NextPage == 0 {
			break
		}
		listOptions.Page = response.NextPage
	}

	registry.logger.Debug(
		packagesListedLogMessageConstant,
		zap.String(logFieldBackendConstant, restBackendLogValueConstant),
		zap.Stringer(logFieldOwnerConstant, owner),
		zap.Int(logFieldCountConstant, len(packageNames)),
	)
	return packageNames, nil
}

// ListVersions returns the versions of packageName that satisfy query, walking every page.
func (registry *RESTRegistry) ListVersions(executionContext context.Context, owner Owner, packageType string, packageName string, query VersionQuery) ([]PackageVersion, error) {
	if len(strings.TrimSpace(packageName)) == 0 {
		return nil, ErrPackageNameRequired
	}

	endpoint := strings.TrimPrefix(owner.VersionsEndpoint(packageType, packageName), baseURLPathSuffixConstant)
	versions := make([]PackageVersion, 0)
	for page := 1; page > 0; {
		request, requestError := registry.client.NewRequest(httpMethodGetConstant, fmt.Sprintf(versionsPageQueryTemplateConstant, endpoint, registry.pageSize, page), nil)
		if requestError != nil {
			return nil, fmt.Errorf(registryCallFailedTemplateConstant, listVersionsOperationNameConstant, requestError)
		}

		var versionsPage []restPackageVersion
		response, doError := registry.client.Do(executionContext, request, &versionsPage)
		if doError != nil {
			return nil, translateRESTError(listVersionsOperationNameConstant, doError)
		}

		for _, versionEntry := range versionsPage {
			version := PackageVersion{
				ID:        versionEntry.ID,
				Digest:    versionEntry.Name,
				UpdatedAt: versionEntry.UpdatedAt,
				Tags:      versionEntry.Metadata.Container.Tags,
			}
			if version.Tags == nil {
				version.Tags = []string{}
			}
			if query.Matches(version) {
				versions = append(versions, version)
			}
		}

		page = 0
		if response != nil {
			page = response.NextPage
		}
	}

	registry.logger.Debug(
		versionsListedLogMessageConstant,
		zap.String(logFieldBackendConstant, restBackendLogValueConstant),
		zap.Stringer(logFieldOwnerConstant, owner),
		zap.String(logFieldPackageConstant, packageName),
		zap.Stringer(logFieldFilterConstant, query.Filter.Mode),
		zap.Int(logFieldCountConstant, len(versions)),
	)
	return versions, nil
}

// DeleteVersion deletes a single package version.
func (registry *RESTRegistry) DeleteVersion(executionContext context.Context, request DeleteRequest) error {
	if len(strings.TrimSpace(request.PackageName)) == 0 {
		return ErrPackageNameRequired
	}
	if len(strings.TrimSpace(request.Owner.Name)) == 0 {
		return ErrDeleteOwnerRequired
	}
	versionIdentifier, identifierError := request.NumericVersionID()
	if identifierError != nil {
		return identifierError
	}

	// go-github leaves nested user package names unescaped, so the endpoint is built here.
	endpoint := strings.TrimPrefix(request.Owner.VersionEndpoint(request.PackageType, request.PackageName, strconv.FormatInt(versionIdentifier, 10)), baseURLPathSuffixConstant)
	deleteRequest, requestError := registry.client.NewRequest(httpMethodDeleteConstant, endpoint, nil)
	if requestError != nil {
		return fmt.Errorf(registryCallFailedTemplateConstant, deleteVersionOperationNameConstant, requestError)
	}
	if _, deleteError := registry.client.Do(executionContext, deleteRequest, nil); deleteError != nil {
		return translateRESTError(deleteVersionOperationNameConstant, deleteError)
	}
	return nil
}

// CurrentUsername resolves the login of the token owner.
func (registry *RESTRegistry) CurrentUsername(executionContext context.Context) (string, error) {
	user, _, userError := registry.client.Users.Get(executionContext, "")
	if userError != nil {
		return "", AuthLookupError{Cause: translateRESTError(currentUserOperationNameConstant, userError)}
	}

	login := strings.TrimSpace(user.GetLogin())
	if len(login) == 0 {
		return "", AuthLookupError{Output: emptyLoginMessageConstant}
	}

	registry.logger.Debug(usernameResolvedLogMessageConstant, zap.String(logFieldUsernameConstant, login))
	return login, nil
}

func translateRESTError(operation string, callError error) error {
	var rateLimitError *github.RateLimitError
	if errors.As(callError, &rateLimitError) && rateLimitError.Response != nil {
		return HTTPError{Operation: operation, StatusCode: rateLimitError.Response.StatusCode, Message: rateLimitError.Message, Cause: callError}
	}

	var errorResponse *github.ErrorResponse
	if errors.As(callError, &errorResponse) && errorResponse.Response != nil {
		return HTTPError{Operation: operation, StatusCode: errorResponse.Response.StatusCode, Message: errorResponse.Message, Cause: callError}
	}

	return fmt.Errorf(registryCallFailedTemplateConstant, operation, callError)
}
