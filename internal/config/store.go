package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	pathutils "github.com/gitfleet/gitfleet/internal/utils/path"
)

const (
	// DefaultConfigurationPathConstant is the location used when no override is provided.
	DefaultConfigurationPathConstant = "~/.config/gitfleet/config.yaml"

	configurationDirectoryPermissions fs.FileMode = 0o755
	configurationFilePermissions      fs.FileMode = 0o600

	configurationReadErrorTemplateConstant   = "unable to read configuration file: %w"
	configurationParseErrorTemplateConstant  = "unable to parse configuration file: %w"
	configurationEncodeErrorTemplateConstant = "unable to encode configuration: %w"
	configurationWriteErrorTemplateConstant  = "unable to write configuration file: %w"
	directoryCreationErrorTemplateConstant   = "unable to create configuration directory: %w"
)

// Configuration is the persisted gitfleet record. SelectedRepositories holds
// fully-qualified "owner/name" identifiers without repetition.
type Configuration struct {
	AccessToken          string   `yaml:"access_token" mapstructure:"access_token"`
	Hostname             string   `yaml:"hostname" mapstructure:"hostname"`
	SelectedRepositories []string `yaml:"selected_repos" mapstructure:"selected_repos"`
}

// Store reads and writes the configuration record at a fixed path. Tilde
// prefixes in the path are expanded to the user's home directory.
type Store struct {
	filePath     string
	homeExpander *pathutils.HomeExpander
}

// NewStore constructs a Store for the provided path, falling back to the
// default location when the path is blank.
func NewStore(filePath string) *Store {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		trimmedPath = DefaultConfigurationPathConstant
	}

	return &Store{filePath: trimmedPath, homeExpander: pathutils.NewHomeExpander()}
}

// Path returns the expanded location of the configuration file.
func (store *Store) Path() string {
	return store.homeExpander.Expand(store.filePath)
}

// Load reads the persisted configuration. A missing file yields a zero
// configuration without error so first-run setup can proceed.
func (store *Store) Load() (Configuration, error) {
	configurationBytes, readError := os.ReadFile(store.Path())
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return Configuration{}, nil
		}
		return Configuration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
	}

	var configuration Configuration
	if parseError := yaml.Unmarshal(configurationBytes, &configuration); parseError != nil {
		return Configuration{}, fmt.Errorf(configurationParseErrorTemplateConstant, parseError)
	}

	configuration.SelectedRepositories = dedupeRepositories(configuration.SelectedRepositories)

	return configuration, nil
}

// Save persists the configuration, creating the parent directory when needed.
// The repository selection is deduplicated preserving first occurrence.
func (store *Store) Save(configuration Configuration) error {
	configuration.SelectedRepositories = dedupeRepositories(configuration.SelectedRepositories)

	configurationBytes, encodeError := yaml.Marshal(configuration)
	if encodeError != nil {
		return fmt.Errorf(configurationEncodeErrorTemplateConstant, encodeError)
	}

	expandedPath := store.Path()
	if directoryError := os.MkdirAll(filepath.Dir(expandedPath), configurationDirectoryPermissions); directoryError != nil {
		return fmt.Errorf(directoryCreationErrorTemplateConstant, directoryError)
	}

	if writeError := os.WriteFile(expandedPath, configurationBytes, configurationFilePermissions); writeError != nil {
		return fmt.Errorf(configurationWriteErrorTemplateConstant, writeError)
	}

	return nil
}

func dedupeRepositories(repositories []string) []string {
	if len(repositories) == 0 {
		return repositories
	}

	seenRepositories := make(map[string]struct{}, len(repositories))
	dedupedRepositories := make([]string, 0, len(repositories))
	for _, repository := range repositories {
		trimmedRepository := strings.TrimSpace(repository)
		if len(trimmedRepository) == 0 {
			continue
		}
		if _, alreadySeen := seenRepositories[trimmedRepository]; alreadySeen {
			continue
		}
		seenRepositories[trimmedRepository] = struct{}{}
		dedupedRepositories = append(dedupedRepositories, trimmedRepository)
	}

	return dedupedRepositories
}
