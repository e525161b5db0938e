package setup

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/gitfleet/gitfleet/internal/config"
	"github.com/gitfleet/gitfleet/internal/githubapi"
)

const (
	accessTokenPromptConstant        = "GitHub access token: "
	hostnamePromptConstant           = "GitHub Enterprise hostname (leave empty for github.com): "
	keepTokenPromptTemplateConstant  = "Keep the configured access token? (y/N) "
	keepSelectionPromptConstant      = "Keep the configured repositories? (y/N) "
	wrongCredentialsMessageConstant  = "Wrong GitHub token/permissions. Please try again.\n"
	emptySelectionMessageConstant    = "Select at least one repository.\n"
	configuredRepositoriesHeader     = "The configured repos will be used:\n"
	configuredRepositoryTemplate     = " * %s\n"
	setupCompletedMessageConstant    = "gitfleet successfully configured.\n"
	missingPrompterMessageConstant   = "setup service requires a prompter"
	missingSelectorMessageConstant   = "setup service requires a repository selector"
	missingStoreMessageConstant      = "setup service requires a configuration store"
	missingFactoryMessageConstant    = "setup service requires a client factory"
	connectionVerifiedMessage        = "github connection verified"
	configurationPersistedMessage    = "configuration persisted"
	logFieldUsernameConstant         = "username"
	logFieldRepositoryCountConstant  = "repository_count"
	logFieldConfigurationPath        = "configuration_path"
	repositoriesSelectedListHeader   = "Selected repositories:\n"
	repositoriesSelectedItemTemplate = " * %s\n"
)

// Collaborator validation errors.
var (
	ErrPrompterNotConfigured = errors.New(missingPrompterMessageConstant)
	ErrSelectorNotConfigured = errors.New(missingSelectorMessageConstant)
	ErrStoreNotConfigured    = errors.New(missingStoreMessageConstant)
	ErrFactoryNotConfigured  = errors.New(missingFactoryMessageConstant)
)

// AccountClient is the connection surface the setup flow exercises.
type AccountClient interface {
	CurrentUserLogin(executionContext context.Context) (string, error)
	ListRepositoryFullNames(executionContext context.Context) ([]string, error)
}

// ClientFactory builds an AccountClient for validated connection settings.
type ClientFactory func(settings githubapi.ConnectionSettings) (AccountClient, error)

// SettingsPrompter collects line-oriented answers during setup.
type SettingsPrompter interface {
	PromptLine(prompt string) (string, error)
	Confirm(prompt string) (bool, error)
}

// ConfigurationStore persists the gitfleet configuration record.
type ConfigurationStore interface {
	Load() (config.Configuration, error)
	Save(config.Configuration) error
	Path() string
}

// Reporter mirrors the bulk reporter: formatted user-facing output.
type Reporter interface {
	Printf(format string, arguments ...any)
}

// Service drives the connection setup flow. Credential rejections re-prompt;
// network failures propagate and terminate setup.
type Service struct {
	logger        *zap.Logger
	prompter      SettingsPrompter
	selector      RepositorySelector
	store         ConfigurationStore
	clientFactory ClientFactory
	reporter      Reporter
}

// NewService validates collaborators and constructs the setup flow.
func NewService(logger *zap.Logger, prompter SettingsPrompter, selector RepositorySelector, store ConfigurationStore, clientFactory ClientFactory, reporter Reporter) (*Service, error) {
	if prompter == nil {
		return nil, ErrPrompterNotConfigured
	}
	if selector == nil {
		return nil, ErrSelectorNotConfigured
	}
	if store == nil {
		return nil, ErrStoreNotConfigured
	}
	if clientFactory == nil {
		return nil, ErrFactoryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = noopReporter{}
	}

	return &Service{
		logger:        logger,
		prompter:      prompter,
		selector:      selector,
		store:         store,
		clientFactory: clientFactory,
		reporter:      reporter,
	}, nil
}

// Run executes the setup flow: prompt for settings, verify the connection,
// select repositories, and persist the configuration.
func (service *Service) Run(executionContext context.Context) error {
	configuration, loadError := service.store.Load()
	if loadError != nil {
		return loadError
	}

	settings, client, username, connectError := service.connect(executionContext, configuration)
	if connectError != nil {
		return connectError
	}

	service.logger.Info(connectionVerifiedMessage, zap.String(logFieldUsernameConstant, username))

	selectedRepositories, selectionError := service.selectRepositories(executionContext, client, configuration.SelectedRepositories)
	if selectionError != nil {
		return selectionError
	}

	configuration = config.Configuration{
		AccessToken:          settings.AccessToken,
		Hostname:             settings.Hostname,
		SelectedRepositories: selectedRepositories,
	}

	if saveError := service.store.Save(configuration); saveError != nil {
		return saveError
	}

	service.logger.Info(
		configurationPersistedMessage,
		zap.Int(logFieldRepositoryCountConstant, len(selectedRepositories)),
		zap.String(logFieldConfigurationPath, service.store.Path()),
	)
	service.reporter.Printf(setupCompletedMessageConstant)

	return nil
}

// connect prompts for connection settings until GitHub accepts them. Only
// credential rejections loop; every other failure is returned to the caller.
func (service *Service) connect(executionContext context.Context, configuration config.Configuration) (githubapi.ConnectionSettings, AccountClient, string, error) {
	for {
		settings, promptError := service.promptSettings(configuration)
		if promptError != nil {
			return githubapi.ConnectionSettings{}, nil, "", promptError
		}

		if validationError := settings.Validate(); validationError != nil {
			service.reporter.Printf(wrongCredentialsMessageConstant)
			configuration.AccessToken = ""
			continue
		}

		client, factoryError := service.clientFactory(settings)
		if factoryError != nil {
			return githubapi.ConnectionSettings{}, nil, "", factoryError
		}

		username, loginError := client.CurrentUserLogin(executionContext)
		if loginError == nil {
			return settings, client, username, nil
		}

		var authError *githubapi.AuthError
		if errors.As(loginError, &authError) {
			service.reporter.Printf(wrongCredentialsMessageConstant)
			configuration.AccessToken = ""
			continue
		}

		return githubapi.ConnectionSettings{}, nil, "", loginError
	}
}

func (service *Service) promptSettings(configuration config.Configuration) (githubapi.ConnectionSettings, error) {
	accessToken := configuration.AccessToken
	if len(accessToken) > 0 {
		keepToken, confirmError := service.prompter.Confirm(keepTokenPromptTemplateConstant)
		if confirmError != nil {
			return githubapi.ConnectionSettings{}, confirmError
		}
		if !keepToken {
			accessToken = ""
		}
	}

	if len(accessToken) == 0 {
		promptedToken, promptError := service.prompter.PromptLine(accessTokenPromptConstant)
		if promptError != nil {
			return githubapi.ConnectionSettings{}, promptError
		}
		accessToken = promptedToken
	}

	hostname, promptError := service.prompter.PromptLine(hostnamePromptConstant)
	if promptError != nil {
		return githubapi.ConnectionSettings{}, promptError
	}
	if len(hostname) == 0 {
		hostname = configuration.Hostname
	}

	return githubapi.NewConnectionSettings(accessToken, hostname), nil
}

func (service *Service) selectRepositories(executionContext context.Context, client AccountClient, currentSelection []string) ([]string, error) {
	if len(currentSelection) > 0 {
		service.reporter.Printf(configuredRepositoriesHeader)
		for _, repository := range currentSelection {
			service.reporter.Printf(configuredRepositoryTemplate, repository)
		}

		keepSelection, confirmError := service.prompter.Confirm(keepSelectionPromptConstant)
		if confirmError != nil {
			return nil, confirmError
		}
		if keepSelection {
			return currentSelection, nil
		}
	}

	fullNames, listError := client.ListRepositoryFullNames(executionContext)
	if listError != nil {
		return nil, listError
	}

	for {
		selectedRepositories, selectionError := service.selector.SelectRepositories(fullNames)
		if selectionError != nil {
			return nil, selectionError
		}
		if len(selectedRepositories) == 0 {
			service.reporter.Printf(emptySelectionMessageConstant)
			continue
		}

		service.reporter.Printf(repositoriesSelectedListHeader)
		for _, repository := range selectedRepositories {
			service.reporter.Printf(repositoriesSelectedItemTemplate, repository)
		}

		return selectedRepositories, nil
	}
}

type noopReporter struct{}

func (noopReporter) Printf(string, ...any) {}
