package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the listed flags (and their values) from args.
// Each config layer uses it to parse its own flags out of os.Args without
// tripping over flags owned by other packages, including go test's
// -test.* flags.
//
// Both "-f value" and "-f=value" forms are recognized.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, name := range allowedFlags {
		allowed[name] = struct{}{}
	}

	kept := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			// "-f=value": keep the whole token when the name matches.
			if _, ok := allowed[strings.SplitN(arg, "=", 2)[0]]; ok {
				kept = append(kept, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		kept = append(kept, arg)
		// A following token that does not start with "-" is this flag's value.
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			kept = append(kept, args[i+1])
			i++
		}
	}

	return kept
}

// JsonConfigFlags returns the config file path given via -c or -config,
// or "" when neither is present. No other arguments are touched.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
