package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined in init() - errors indicate programming bugs.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// overrideString replaces *dst with the flag value when the flag was given on the
// command line. Flags the command doesn't define are ignored.
func overrideString(cmd *cobra.Command, name string, dst *string) {
	if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
		*dst = mustGetString(cmd, name)
	}
}

// overrideInt is overrideString for int flags.
func overrideInt(cmd *cobra.Command, name string, dst *int) {
	if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
		*dst = mustGetInt(cmd, name)
	}
}
