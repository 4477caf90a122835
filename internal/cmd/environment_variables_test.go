package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFlagsFromEnvVariables(t *testing.T) {
	t.Run("override flag with env var", func(t *testing.T) {
		fs := pflag.NewFlagSet("testing", pflag.ContinueOnError)
		got := fs.String("foo", "default", "")
		t.Setenv("STITCH_FOO", "bar")
		SetFlagsFromEnvVariables(fs)
		require.NoError(t, fs.Parse(nil))
		assert.Equal(t, "bar", *got)
	})
	t.Run("hyphenated flag name", func(t *testing.T) {
		fs := pflag.NewFlagSet("testing", pflag.ContinueOnError)
		got := fs.String("site-token", "", "")
		t.Setenv("STITCH_SITE_TOKEN", "s3cr3t")
		SetFlagsFromEnvVariables(fs)
		require.NoError(t, fs.Parse(nil))
		assert.Equal(t, "s3cr3t", *got)
	})
	t.Run("unset env var leaves default", func(t *testing.T) {
		fs := pflag.NewFlagSet("testing", pflag.ContinueOnError)
		got := fs.String("foo", "default", "")
		SetFlagsFromEnvVariables(fs)
		require.NoError(t, fs.Parse(nil))
		assert.Equal(t, "default", *got)
	})
}
