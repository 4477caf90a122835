package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const EnvironmentVariablePrefix = "STITCH_"

// SetFlagsFromEnvVariables sets each unset flag from an env variable whose
// name starts with `STITCH_`.
func SetFlagsFromEnvVariables(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		envVar := flagToEnvVarName(f)
		if val, present := os.LookupEnv(envVar); present {
			fs.Set(f.Name, val)
		}
	})
}

func flagToEnvVarName(f *pflag.Flag) string {
	return fmt.Sprintf("%s%s", EnvironmentVariablePrefix, strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_"))
}
