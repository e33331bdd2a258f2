package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"commoners/internal/config"
	"commoners/internal/planner"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersion(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "commoners", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
	assert.NotNil(t, rootCmd.RunE, "root runs the dev loop without a subcommand")
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{Use: "test", Version: "1.0.0"}
	testCmd.SetVersionTemplate(`{{printf "commoners version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	require.NoError(t, testCmd.Execute())

	assert.Equal(t, "commoners version 1.0.0\n", buf.String())
}

func TestSubcommands(t *testing.T) {
	found := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"dev", "build", "launch", "config", "commit", "publish", "version", "self-update"} {
		assert.True(t, found[name], "expected subcommand %s to be registered", name)
	}
}

func TestPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()
	for _, name := range []string{"settings", "root", "config", "target", "platform", "out-dir", "debug", "log-level", "log-format"} {
		assert.NotNil(t, flags.Lookup(name), "expected persistent flag --%s", name)
	}
	assert.Equal(t, "t", flags.Lookup("target").Shorthand)
	assert.Equal(t, "p", flags.Lookup("platform").Shorthand)
}

func TestGetExitCode(t *testing.T) {
	collection := config.NewConfigurationErrorCollection()
	collection.AddValidation(config.CategoryServices, "api", "port must be between 1 and 65535")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "configuration error collection",
			err:  collection.ErrOrNil(),
			want: ExitCodeConfig,
		},
		{
			name: "wrapped configuration error collection",
			err:  fmt.Errorf("loading project: %w", collection.ErrOrNil()),
			want: ExitCodeConfig,
		},
		{
			name: "single configuration error",
			err:  config.NewConfigurationError("commoners.config.yaml", config.ErrorTypeParse, "configuration file is not valid", nil),
			want: ExitCodeConfig,
		},
		{
			name: "build step failure",
			err:  &planner.BuildStepError{Step: planner.Step{Kind: planner.StepBuildService, Service: "api"}, Err: errors.New("exit status 1")},
			want: ExitCodeError,
		},
		{
			name: "other error",
			err:  errors.New("boom"),
			want: ExitCodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestPublishMode(t *testing.T) {
	assert.Equal(t, "always", publishMode(""))
	assert.Equal(t, "always", publishMode("true"))
	assert.Equal(t, "onTag", publishMode("onTag"))
}
