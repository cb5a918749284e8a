// Package flagx lets several independent flag sets share one command line.
// Each consumer keeps only the arguments it knows about and ignores the rest.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the subset of args that belongs to allowedFlags,
// together with their values.
//
// Both "-c conf.json" and "-c=conf.json" forms are recognised. A token
// starting with '-' is never consumed as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// DefinedFlags lists every flag registered on fs in both "-name" and
// "--name" spellings, ready to be passed to FilterArgs.
func DefinedFlags(fs *flag.FlagSet) []string {
	var names []string
	fs.VisitAll(func(f *flag.Flag) {
		names = append(names, "-"+f.Name, "--"+f.Name)
	})
	return names
}

// ParseKnown parses only those args that fs defines. Unknown flags
// belonging to other consumers are dropped before parsing.
func ParseKnown(fs *flag.FlagSet, args []string) error {
	return fs.Parse(FilterArgs(args, DefinedFlags(fs)))
}

// ConfigPath extracts the config file path given via -c or -config.
// An empty string means no file was requested. When both appear the last wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = ParseKnown(fs, args)

	return path
}
