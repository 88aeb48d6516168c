package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/joho/godotenv"

	"github.com/dyike/SectorsGo/config"
	"github.com/dyike/SectorsGo/consts"
)

// InitAnswers are the values collected by the init wizard.
type InitAnswers struct {
	SectorsAPIKey  string
	LLMProvider    string
	LLMAPIKey      string
	LLMModel       string
	HistoryEnabled bool
}

var providerKeyEnv = map[string]string{
	consts.ProviderGroq:     "GROQ_API_KEY",
	consts.ProviderDeepSeek: "DEEPSEEK_API_KEY",
	consts.ProviderOpenAI:   "OPENAI_API_KEY",
}

// EnvMap turns the answers into .env entries. Empty values are left out.
func (a InitAnswers) EnvMap() map[string]string {
	env := map[string]string{
		"LLM_PROVIDER":    a.LLMProvider,
		"HISTORY_ENABLED": fmt.Sprintf("%t", a.HistoryEnabled),
	}
	if a.SectorsAPIKey != "" {
		env["SECTORS_API_KEY"] = a.SectorsAPIKey
	}
	if name, ok := providerKeyEnv[a.LLMProvider]; ok && a.LLMAPIKey != "" {
		env[name] = a.LLMAPIKey
	}
	if a.LLMModel != "" {
		env["LLM_MODEL"] = a.LLMModel
	}
	return env
}

// WriteEnvFile writes the answers to path, merging with any existing entries.
func WriteEnvFile(path string, answers InitAnswers) error {
	env := map[string]string{}
	if existing, err := godotenv.Read(path); err == nil {
		env = existing
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for k, v := range answers.EnvMap() {
		env[k] = v
	}
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func requiredValue(val interface{}) error {
	str, _ := val.(string)
	if strings.TrimSpace(str) == "" {
		return fmt.Errorf("value cannot be empty")
	}
	return nil
}

// PromptForInit walks the user through the settings needed for a first run.
func PromptForInit(cfg *config.Config) (InitAnswers, error) {
	var answers InitAnswers

	err := survey.AskOne(&survey.Password{
		Message: "Sectors API key:",
		Help:    "Create one at https://sectors.app/api. Sent as the Authorization header.",
	}, &answers.SectorsAPIKey, survey.WithValidator(requiredValue))
	if err != nil {
		return answers, err
	}

	providers := []string{consts.ProviderGroq, consts.ProviderOllama, consts.ProviderDeepSeek, consts.ProviderOpenAI}
	defaultProvider := cfg.LLMProvider
	if defaultProvider == "" {
		defaultProvider = consts.ProviderGroq
	}
	err = survey.AskOne(&survey.Select{
		Message: "Select LLM provider:",
		Options: providers,
		Help:    "Groq and Ollama are reached through their OpenAI-compatible endpoints.",
		Default: defaultProvider,
	}, &answers.LLMProvider)
	if err != nil {
		return answers, err
	}

	if _, needsKey := providerKeyEnv[answers.LLMProvider]; needsKey {
		err = survey.AskOne(&survey.Password{
			Message: fmt.Sprintf("%s API key:", answers.LLMProvider),
		}, &answers.LLMAPIKey, survey.WithValidator(requiredValue))
		if err != nil {
			return answers, err
		}
	}

	probe := *cfg
	probe.LLMProvider = answers.LLMProvider
	probe.LLMModel = ""
	err = survey.AskOne(&survey.Input{
		Message: "Model:",
		Default: probe.Model(),
	}, &answers.LLMModel)
	if err != nil {
		return answers, err
	}
	if answers.LLMModel == probe.Model() {
		answers.LLMModel = ""
	}

	err = survey.AskOne(&survey.Confirm{
		Message: "Record queries in a local SQLite history?",
		Default: cfg.HistoryEnabled,
	}, &answers.HistoryEnabled)
	return answers, err
}
