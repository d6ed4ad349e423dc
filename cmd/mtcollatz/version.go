package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/kolkov/mtcollatz/collatz"
)

// errVersionTooOld is returned by 'version --require' when the build is older.
var errVersionTooOld = errors.New("version requirement not met")

// versionCommand implements 'mtcollatz version'.
func versionCommand(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("version", pflag.ContinueOnError)
	fs.SetOutput(stdout)
	require := fs.String("require", "", "fail unless the version is at least this one")

	if err := fs.Parse(args); err != nil {
		return err
	}

	info := collatz.GetInfo()
	fmt.Fprintf(stdout, "mtcollatz version %s (auditor: %s, default bound %d)\n",
		info.Version, info.Algorithm, info.DefaultBound)

	if *require == "" {
		return nil
	}

	ok, err := collatz.VersionAtLeast(*require)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: have %s, need %s", errVersionTooOld, info.Version, *require)
	}

	return nil
}
