// Package flagx picks the flags a component owns out of a shared command
// line, so several parsers can read the same arguments without tripping
// over each other's flags.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the arguments that belong to the given flags.
//
// valueFlags take a value, either as the next argument (-c conf.toml) or
// joined with '=' (-config=conf.toml). boolFlags never consume the next
// argument; -cached=false is kept as written. Everything else is dropped.
func FilterArgs(args []string, valueFlags []string, boolFlags []string) []string {
	takesValue := make(map[string]bool, len(valueFlags)+len(boolFlags))
	for _, f := range valueFlags {
		takesValue[f] = true
	}
	for _, f := range boolFlags {
		takesValue[f] = false
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		// "--flag=value" and "-f=value"
		if name, _, ok := strings.Cut(arg, "="); ok {
			if _, known := takesValue[name]; known {
				filtered = append(filtered, arg)
			}
			continue
		}

		value, known := takesValue[arg]
		if !known {
			continue
		}
		filtered = append(filtered, arg)

		// the next token is the value unless it looks like another flag
		if value && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFileFlag returns the path given with -c or -config, or "". With
// both present the last one wins.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}, nil))

	return path
}
