package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/SectorsGo/config"
	"github.com/dyike/SectorsGo/consts"
)

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.New()
	dir := t.TempDir()
	cfg.DataDir = dir
	cfg.HistoryDB = filepath.Join(dir, "history.db")
	return &app{
		cfg:    cfg,
		source: &fakeSource{},
		agent: &fakeAgent{answers: map[string]string{
			"Tell me about BBCA": "BBCA is Bank Central Asia.",
		}},
	}
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := a.execute(context.Background(), cmd)
	return out.String(), err
}

func TestAskCommand(t *testing.T) {
	a := testApp(t)
	out, err := execute(t, a, "ask", "Tell", "me", "about", "BBCA")
	require.NoError(t, err)
	assert.Contains(t, out, "BBCA is Bank Central Asia.")
	assert.Contains(t, out, "Execution Time:")
}

func TestToolsCommandListsCatalog(t *testing.T) {
	out, err := execute(t, testApp(t), "tools")
	require.NoError(t, err)
	for _, name := range []string{consts.CompanyOverview, consts.TopCompaniesByTxVolume, consts.DailyTx} {
		assert.Contains(t, out, name)
	}
}

func TestCallCommand(t *testing.T) {
	a := testApp(t)
	out, err := execute(t, a, "call", consts.CompanyOverview, "--symbol", "BBCA")
	require.NoError(t, err)
	assert.Contains(t, out, `"symbol": "BBCA.JK"`, "response is pretty printed")
	assert.Equal(t, []string{"overview:BBCA"}, a.source.(*fakeSource).calls)

	_, err = execute(t, a, "call", consts.DailyTx, "--symbol", "BBCA", "--start", "2024-06-01", "--end", "2024-06-30")
	assert.ErrorContains(t, err, "daily endpoint unavailable")

	_, err = execute(t, a, "call", "get_unknown")
	assert.ErrorContains(t, err, "unknown tool")
}

func TestCallCommandDateFallback(t *testing.T) {
	a := testApp(t)
	a.now = func() time.Time { return time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC) }

	_, err := execute(t, a, "call", consts.TopCompaniesByTxVolume, "--start", "30/06/2024", "--end", "next week", "--top-n", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"most-traded:2024-06-30:2024-07-15"}, a.source.(*fakeSource).calls)
}

func TestHistoryCommand(t *testing.T) {
	a := testApp(t)
	_, err := execute(t, a, "history")
	assert.ErrorIs(t, err, errHistoryDisabled)

	a.cfg.HistoryEnabled = true
	_, err = execute(t, a, "ask", "Tell me about BBCA")
	require.NoError(t, err)

	out, err := execute(t, a, "history", "--calls")
	require.NoError(t, err)
	assert.Contains(t, out, "Tell me about BBCA")
	assert.Contains(t, out, "1. get_company_overview")
}

func TestFailedCommandClosesHistory(t *testing.T) {
	a := testApp(t)
	a.cfg.HistoryEnabled = true
	a.agent = &fakeAgent{errs: map[string]error{"Daily tx for TLKM": errors.New("llm unavailable")}}

	_, err := execute(t, a, "ask", "Daily tx for TLKM")
	require.ErrorContains(t, err, "llm unavailable")
	assert.Nil(t, a.store)
	assert.Nil(t, a.history)

	out, err := execute(t, a, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Daily tx for TLKM")
	assert.Nil(t, a.store)
}

func TestConfigValidateRejectsBadProvider(t *testing.T) {
	a := testApp(t)
	a.cfg.LLMProvider = "anthropic"
	_, err := execute(t, a, "config", "validate")
	assert.Error(t, err)

	a.cfg.LLMProvider = consts.ProviderOllama
	a.cfg.SectorsAPIKey = "sectors-key"
	out, err := execute(t, a, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid.")
}

func TestConfigShowMasksSecrets(t *testing.T) {
	a := testApp(t)
	a.cfg.SectorsAPIKey = "abcd1234efgh5678"
	out, err := execute(t, a, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "abcd****5678")
	assert.NotContains(t, out, "abcd1234efgh5678")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, testApp(t), "version")
	require.NoError(t, err)
	assert.Contains(t, out, consts.AppVersion)
}

func TestWriteEnvFileMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, godotenv.Write(map[string]string{"URL_API": "https://api.sectors.app/v1", "LLM_PROVIDER": "openai"}, path))

	err := WriteEnvFile(path, InitAnswers{
		SectorsAPIKey:  "sectors-key",
		LLMProvider:    consts.ProviderGroq,
		LLMAPIKey:      "gsk_test",
		HistoryEnabled: true,
	})
	require.NoError(t, err)

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.sectors.app/v1", env["URL_API"])
	assert.Equal(t, consts.ProviderGroq, env["LLM_PROVIDER"])
	assert.Equal(t, "gsk_test", env["GROQ_API_KEY"])
	assert.Equal(t, "sectors-key", env["SECTORS_API_KEY"])
	assert.Equal(t, "true", env["HISTORY_ENABLED"])
	assert.NotContains(t, env, "LLM_MODEL")
}

func TestEnvMapOllamaHasNoKey(t *testing.T) {
	env := InitAnswers{LLMProvider: consts.ProviderOllama, LLMAPIKey: "ignored"}.EnvMap()
	assert.Equal(t, map[string]string{"LLM_PROVIDER": "ollama", "HISTORY_ENABLED": "false"}, env)
}
