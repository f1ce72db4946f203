package cli

import (
	"os"
	"slices"

	"github.com/joho/godotenv"

	"github.com/ardnew/ytsub/pkg"
)

// envFile is the name of the dotenv file read before parsing flags.
const envFile = ".env"

// envFiles returns the dotenv files that exist, in precedence order: the
// working directory, then the configuration directory.
func envFiles() []string {
	return slices.DeleteFunc(
		[]string{envFile, pkg.ConfigPath(envFile)},
		func(path string) bool {
			info, err := os.Stat(path)

			return err != nil || info.IsDir()
		},
	)
}

// loadEnv sets variables from the dotenv files. Variables already present in
// the environment are never replaced, and among the files the first to
// define a variable wins.
func loadEnv() error {
	files := envFiles()
	if len(files) == 0 {
		return nil
	}

	return godotenv.Load(files...)
}
