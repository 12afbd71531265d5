package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func setupCLI(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	t.Chdir(dir)
	t.Setenv("CHATLIST_DATABASE_DSN", filepath.Join(dir, "chatlist.db"))
	t.Setenv("CHATLIST_LOG_LEVEL", "error")

	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	err := execute(t.Context(), &app{}, args, &out, &bytes.Buffer{})

	return out.String(), err
}

func TestModelsCommands(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "models", "add", "--name", "GPT-4", "--url", "https://api.openai.com/v1/chat/completions", "--api-id", "OPENAI_API_KEY")

	require.Nil(t, err)
	assert.Equal(t, "Added model #1\n", out)

	_, err = run(t, "models", "add", "--name", "Llama", "--url", "https://openrouter.ai/api/v1/chat/completions", "--api-id", "meta-llama/llama-3.1-8b-instruct", "--inactive")

	require.Nil(t, err)

	_, err = run(t, "models", "add", "--name", "Broken", "--url", "api.example.com", "--api-id", "KEY")

	assert.ErrorContains(t, err, "must start with http:// or https://")

	out, err = run(t, "models", "list")

	require.Nil(t, err)
	assert.Contains(t, out, "GPT-4")
	assert.Contains(t, out, "openrouter")

	out, err = run(t, "models", "toggle", "Llama")

	require.Nil(t, err)
	assert.Equal(t, "Model 'Llama' is now active\n", out)

	_, err = run(t, "models", "update", "1", "--name", "GPT-4o")

	require.Nil(t, err)

	out, _ = run(t, "models", "list", "--active")

	assert.Contains(t, out, "GPT-4o")
	assert.Contains(t, out, "Llama")

	out, err = run(t, "models", "delete", "GPT-4o")

	require.Nil(t, err)
	assert.Equal(t, "Deleted model 'GPT-4o'\n", out)
}

func TestModelsImportAndSchema(t *testing.T) {
	dir := setupCLI(t)

	path := filepath.Join(dir, "models.yaml")

	require.Nil(t, os.WriteFile(path, []byte(`
models:
  - name: GPT-4
    api_url: https://api.openai.com/v1/chat/completions
    api_id: OPENAI_API_KEY
    is_active: true
  - name: DeepSeek
    api_url: https://api.deepseek.com/chat/completions
    api_id: DEEPSEEK_API_KEY
    is_active: true
`), 0o600))

	out, err := run(t, "models", "import", path)

	require.Nil(t, err)
	assert.Equal(t, "Imported 2 models (2 created, 0 updated)\n", out)

	out, err = run(t, "models", "import", path)

	require.Nil(t, err)
	assert.Equal(t, "Imported 2 models (0 created, 2 updated)\n", out)

	out, err = run(t, "models", "schema")

	require.Nil(t, err)
	assert.Equal(t, "array", gjson.Get(out, "properties.models.type").String())
}

func TestSendAndExport(t *testing.T) {
	defer gock.Off()

	dir := setupCLI(t)

	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("DEEPSEEK_API_KEY", "")

	gock.New("https://api.openai.com").
		Post("/v1/chat/completions").
		MatchHeader("Authorization", "^Bearer sk-openai$").
		Reply(http.StatusOK).
		BodyString(`{"choices":[{"message":{"role":"assistant","content":"Goroutines are cheap threads."}}]}`)

	_, err := run(t, "models", "add", "--name", "GPT-4", "--url", "https://api.openai.com/v1/chat/completions", "--api-id", "OPENAI_API_KEY")
	require.Nil(t, err)

	_, err = run(t, "models", "add", "--name", "DeepSeek", "--url", "https://api.deepseek.com/chat/completions", "--api-id", "DEEPSEEK_API_KEY")
	require.Nil(t, err)

	out, err := run(t, "send", "--save", "--tags", "go", "--jsonl", "Explain goroutines")

	require.Nil(t, err)
	assert.True(t, gock.IsDone())

	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))

	require.Len(t, lines, 2)
	assert.Equal(t, "GPT-4", gjson.GetBytes(lines[0], "model_name").String())
	assert.Equal(t, "Goroutines are cheap threads.", gjson.GetBytes(lines[0], "response").String())
	assert.Equal(t, "could not construct client: API key DEEPSEEK_API_KEY is not set in the environment", gjson.GetBytes(lines[1], "error").String())
	assert.Equal(t, "configuration", gjson.GetBytes(lines[1], "kind").String())

	out, err = run(t, "results", "search", "goroutines")

	require.Nil(t, err)
	assert.Contains(t, out, "Goroutines are cheap threads.")

	out, err = run(t, "results", "export", "--out", "exports/results.md")

	require.Nil(t, err)
	assert.Equal(t, "Exported 1 results to exports/results.md\n", out)

	contents, err := os.ReadFile(filepath.Join(dir, "exports", "results.md"))

	require.Nil(t, err)
	assert.Contains(t, string(contents), "## GPT-4 - ")
	assert.Contains(t, string(contents), "**Tags:** go")

	out, _ = run(t, "prompts", "search", "goroutines")

	assert.Contains(t, out, "Explain goroutines")
}

func TestSendWithoutModels(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "send", "Hello")

	assert.ErrorContains(t, err, "no active models")
}

func TestImprove(t *testing.T) {
	defer gock.Off()

	setupCLI(t)

	t.Setenv("OPENAI_API_KEY", "sk-openai")

	gock.New("https://api.openai.com").
		Post("/v1/chat/completions").
		Reply(http.StatusOK).
		BodyString(`{"choices":[{"message":{"content":"Improved prompt: Write a haiku about autumn leaves."}}]}`)

	_, err := run(t, "models", "add", "--name", "GPT-4", "--url", "https://api.openai.com/v1/chat/completions", "--api-id", "OPENAI_API_KEY")
	require.Nil(t, err)

	out, err := run(t, "improve", "--model", "GPT-4", "--save", "write a poem")

	require.Nil(t, err)
	assert.Equal(t, "Write a haiku about autumn leaves.\n", out)

	out, err = run(t, "prompts", "versions")

	require.Nil(t, err)
	assert.Contains(t, out, "Write a haiku about autumn leaves.")
}

func TestSettings(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "settings", "get", "theme", "--default", "dark")

	require.Nil(t, err)
	assert.Equal(t, "dark\n", out)

	_, err = run(t, "settings", "set", "theme", "light")

	require.Nil(t, err)

	out, _ = run(t, "settings", "get", "theme")

	assert.Equal(t, "light\n", out)
}

func TestFailingCommandReleasesStore(t *testing.T) {
	setupCLI(t)

	a := &app{}
	root := a.rootCmd()
	root.SetArgs([]string{"models", "add", "--name", "Broken", "--url", "api.example.com", "--api-id", "KEY"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	require.NotNil(t, root.ExecuteContext(t.Context()))
	require.NotNil(t, a.store)

	db := a.store

	assert.Nil(t, a.shutdown())
	assert.Nil(t, a.store)

	_, err := db.Models(t.Context())

	assert.ErrorContains(t, err, "database is closed")

	err = execute(t.Context(), &app{}, []string{"models", "add", "--name", "Broken", "--url", "api.example.com", "--api-id", "KEY"}, &bytes.Buffer{}, &bytes.Buffer{})

	assert.ErrorContains(t, err, "must start with http:// or https://")
}
