package formatting

import (
	"bytes"
	"strings"
	"testing"

	"commoners/internal/config"
	"commoners/internal/planner"
	"commoners/internal/project"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{
			name:     "simple object",
			input:    map[string]interface{}{"name": "test", "value": 42},
			expected: "{\n  \"name\": \"test\",\n  \"value\": 42\n}",
		},
		{
			name:     "array",
			input:    []string{"a", "b"},
			expected: "[\n  \"a\",\n  \"b\"\n]",
		},
		{
			name:     "nil",
			input:    nil,
			expected: "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrettyJSON(tt.input); got != tt.expected {
				t.Errorf("PrettyJSON() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPrettyJSONWithInvalidData(t *testing.T) {
	result := PrettyJSON(make(chan int))
	if len(result) < 5 {
		t.Errorf("PrettyJSON() fallback should provide meaningful output, got %q", result)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	v := struct {
		AppID string `json:"appId"`
	}{AppID: "com.demo.app"}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatYAML, v))
	assert.Equal(t, "appId: com.demo.app\n", buf.String())

	buf.Reset()
	require.NoError(t, Encode(&buf, FormatJSON, v))
	assert.Contains(t, buf.String(), `"appId": "com.demo.app"`)

	assert.Error(t, Encode(&buf, FormatTable, v))
}

func sampleConfig() *config.ResolvedConfig {
	return &config.ResolvedConfig{
		Name:    "Demo",
		AppID:   "com.demo.app",
		Version: "1.0.0",
		OutDir:  "/p/.commoners/dist",
		Services: map[string]*config.ResolvedService{
			"api": {Name: "api", Port: 4000, Launch: "python api.py", BuildCommand: "pyinstaller api.py", Build: config.CommandSpec{Shared: "pyinstaller api.py"}},
		},
		Plugins: []*config.ResolvedPlugin{
			{PluginDescriptor: config.PluginDescriptor{Name: "serial"}, Support: map[string]bool{"desktop": true, "web": false}},
		},
	}
}

func TestPlanTable(t *testing.T) {
	plan := planner.New(sampleConfig(), project.TargetDesktop, project.PlatformLinux, planner.ScopeFromFlags(false, false, nil))

	var buf bytes.Buffer
	PlanTable(&buf, plan)
	out := buf.String()

	for _, want := range []string{"desktop", "clear-output", "bundle-frontend", "build-service", "pyinstaller api.py", "package-desktop"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "clear-output"), strings.Index(out, "package-desktop"))
}

func TestConfigTable(t *testing.T) {
	var buf bytes.Buffer
	ConfigTable(&buf, sampleConfig(), []string{"web", "desktop"})
	out := buf.String()

	for _, want := range []string{"com.demo.app", "api", "4000", "python api.py", "serial", "yes", "no"} {
		assert.Contains(t, out, want)
	}
}

func TestServicesTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	ServicesTable(&buf, nil)
	assert.Contains(t, buf.String(), "No services running")
}
