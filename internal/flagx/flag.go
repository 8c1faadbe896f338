// Package flagx finds the config file flag in raw command-line arguments.
// The config layer needs the file before cobra parses the command tree, so
// the lookup cannot wait for the regular flag set.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// ConfigFlagNames are the spellings accepted for the config file flag.
var ConfigFlagNames = []string{"-c", "--c", "-config", "--config"}

// FilterArgs keeps only the flags named in keep, together with their values,
// and drops every other argument. Nothing after a "--" terminator is looked
// at, since those are positional paths.
//
// A kept flag may carry its value inline ("--config=conf.json") or as the
// next argument ("-c conf.json"). A following argument that starts with "-"
// is never taken as a value.
//
// Example:
//
//	FilterArgs([]string{"encrypt", "-c", "conf.json", "-O", "a.txt"}, []string{"-c"})
//	// []string{"-c", "conf.json"}
func FilterArgs(args []string, keep []string) []string {
	names := make(map[string]bool, len(keep))
	for _, k := range keep {
		names[k] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args) && args[i] != "--"; i++ {
		arg := args[i]
		if name, _, inline := strings.Cut(arg, "="); inline && strings.HasPrefix(arg, "-") {
			if names[name] {
				out = append(out, arg)
			}
			continue
		}
		if !names[arg] {
			continue
		}
		out = append(out, arg)
		if next := i + 1; next < len(args) && !strings.HasPrefix(args[next], "-") {
			out = append(out, args[next])
			i = next
		}
	}
	return out
}

// JsonConfigFlags returns the JSON config file named by -c or --config in
// args, or "" when there is none. A repeated flag resolves to its last
// value, and a flag with no value is treated as absent.
func JsonConfigFlags(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "JSON config file")
	fs.StringVar(&path, "c", "", "JSON config file (shorthand)")
	if err := fs.Parse(FilterArgs(args, ConfigFlagNames)); err != nil {
		return ""
	}
	return path
}
