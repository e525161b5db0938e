package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitfleet/gitfleet/internal/utils"
)

const (
	loaderConfigurationNameConstant = "config"
	loaderConfigurationTypeConstant = "yaml"
	loaderEnvironmentPrefixConstant = "GITFLEET"
)

type loaderTestConfiguration struct {
	Common struct {
		LogLevel  string `mapstructure:"log_level"`
		LogFormat string `mapstructure:"log_format"`
	} `mapstructure:"common"`
}

func TestLoadConfigurationAppliesDefaults(testInstance *testing.T) {
	loader := utils.NewConfigurationLoader(loaderConfigurationNameConstant, loaderConfigurationTypeConstant, loaderEnvironmentPrefixConstant, []string{testInstance.TempDir()})

	defaultValues := map[string]any{
		"common.log_level":  "info",
		"common.log_format": "structured",
	}

	var configuration loaderTestConfiguration
	metadata, loadError := loader.LoadConfiguration("", defaultValues, &configuration)
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, metadata.ConfigFileUsed)
	require.Equal(testInstance, "info", configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", configuration.Common.LogFormat)
}

func TestLoadConfigurationReadsExplicitFile(testInstance *testing.T) {
	configurationPath := filepath.Join(testInstance.TempDir(), "config.yaml")
	configurationContents := "common:\n  log_level: debug\n  log_format: console\n"
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationContents), 0o600))

	loader := utils.NewConfigurationLoader(loaderConfigurationNameConstant, loaderConfigurationTypeConstant, loaderEnvironmentPrefixConstant, nil)

	var configuration loaderTestConfiguration
	metadata, loadError := loader.LoadConfiguration(configurationPath, nil, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, configurationPath, metadata.ConfigFileUsed)
	require.Equal(testInstance, "debug", configuration.Common.LogLevel)
	require.Equal(testInstance, "console", configuration.Common.LogFormat)
}

func TestLoadConfigurationRejectsMalformedFile(testInstance *testing.T) {
	configurationPath := filepath.Join(testInstance.TempDir(), "config.yaml")
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte("common: [broken"), 0o600))

	loader := utils.NewConfigurationLoader(loaderConfigurationNameConstant, loaderConfigurationTypeConstant, loaderEnvironmentPrefixConstant, nil)

	var configuration loaderTestConfiguration
	_, loadError := loader.LoadConfiguration(configurationPath, nil, &configuration)
	require.Error(testInstance, loadError)
}
