package cli

import (
	"os"
	"strings"

	"github.com/posener/complete"

	"github.com/semmy-space/keyver/internal/config"
	"github.com/semmy-space/keyver/internal/envfile"
	"github.com/semmy-space/keyver/internal/versioning"
)

// SecretPredictor completes logical secret names from the env file named by
// --env-file on the command line, KEYVER_ENV_FILE, or the default.
func SecretPredictor() complete.Predictor {
	return complete.PredictFunc(func(args complete.Args) []string {
		return secretNames(envFileFromArgs(args.All))
	})
}

func envFileFromArgs(all []string) string {
	for i, a := range all {
		if (a == "--env-file" || a == "-f") && i+1 < len(all) {
			return all[i+1]
		}
		if v, ok := strings.CutPrefix(a, "--env-file="); ok && v != "" {
			return v
		}
	}
	if v := os.Getenv("KEYVER_ENV_FILE"); v != "" {
		return v
	}
	return config.DefaultEnvFile
}

func secretNames(path string) []string {
	pairs, err := envfile.ReadAllPairs(path)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{}, len(pairs))
	names := make([]string, 0, len(pairs))
	for key := range pairs {
		name := versioning.LogicalName(key)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
