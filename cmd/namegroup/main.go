// Package main provides a command-line interface to the grouping algorithm.
// Names are taken from arguments, or from stdin one per line, and the
// resulting groups are printed as JSON.
package main

import (
	"bufio"
	"flag"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/namegroup/internal/config"
	"github.com/thebtf/namegroup/internal/profiles"
	"github.com/thebtf/namegroup/pkg/wordtrie"
)

func main() {
	delimiter := flag.String("d", "", "Word delimiter (default \"_\")")
	profile := flag.String("profile", "", "Delimiter profile name (overrides -d)")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	sep := *delimiter
	if *profile != "" {
		registry, err := profiles.Load(config.ProfilesPath())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load delimiter profiles")
		}
		p, ok := registry.Get(*profile)
		if !ok {
			log.Fatal().Str("profile", *profile).Msg("Unknown profile")
		}
		sep = p.Delimiter
	}
	if sep == "" {
		sep = wordtrie.DefaultDelimiter
	}

	names := flag.Args()
	if len(names) == 0 {
		names = readLines(os.Stdin)
	}
	if len(names) == 0 {
		log.Fatal().Msg("No names given: pass them as arguments or on stdin")
	}

	groups, err := wordtrie.GroupNames(names, sep)
	if err != nil {
		log.Fatal().Err(err).Msg("Grouping failed")
	}

	out, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode groups")
	}
	os.Stdout.Write(append(out, '\n'))
}

// readLines reads non-empty lines from r, trimming surrounding whitespace.
func readLines(r *os.File) []string {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}
