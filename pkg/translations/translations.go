package translations

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// TranslationHelperFunc resolves a translation key, falling back to defaultValue.
type TranslationHelperFunc func(key string, defaultValue string) string

const (
	// ConfigName is the JSON file, looked up in the working directory, holding overrides.
	ConfigName = "github-connector-config"
	// EnvPrefix prefixes override environment variables, e.g. GITHUB_CONNECTOR_TOOL_READ_FILE_DESCRIPTION.
	EnvPrefix = "GITHUB_CONNECTOR"
)

func NullTranslationHelper(_ string, defaultValue string) string {
	return defaultValue
}

// TranslationHelper returns a helper reading overrides from the environment and
// from ConfigName.json, plus a function that dumps every key seen so far.
func TranslationHelper(logger *slog.Logger) (TranslationHelperFunc, func()) {
	return translationHelper(logger, ".")
}

func translationHelper(logger *slog.Logger, configPath string) (TranslationHelperFunc, func()) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	translationKeyMap := map[string]string{}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetConfigName(ConfigName)
	v.SetConfigType("json")
	v.AddConfigPath(configPath)
	if err := v.ReadInConfig(); err != nil {
		logger.Debug("no translation config loaded", "error", err)
	}

	return func(key string, defaultValue string) string {
			key = strings.ToUpper(key)
			if value, exists := translationKeyMap[key]; exists {
				return value
			}
			if value := v.GetString(key); value != "" {
				translationKeyMap[key] = value
				return value
			}
			translationKeyMap[key] = defaultValue
			return defaultValue
		}, func() {
			if err := DumpTranslationKeyMap(ConfigName+".json", translationKeyMap); err != nil {
				logger.Error("failed to dump translation key map", "error", err)
			}
		}
}

// DumpTranslationKeyMap writes the key map as indented JSON to path.
func DumpTranslationKeyMap(path string, translationKeyMap map[string]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer func() { _ = file.Close() }()

	jsonData, err := json.MarshalIndent(translationKeyMap, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling map to JSON: %w", err)
	}

	if _, err := file.Write(jsonData); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}
