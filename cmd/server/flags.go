package main

import (
	"flag"
	"fmt"
	"strings"
)

// printFlags prints flag definitions with double-dash prefix (--flag)
// instead of Go's default single-dash (-flag)
func printFlags(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		// Format: --name type
		//             description (default: value)
		var typeStr string
		switch f.DefValue {
		case "false", "true":
			typeStr = "" // boolean flags don't show type
		default:
			typeStr = " " + flagTypeName(f)
		}

		fmt.Printf("  --%s%s\n", f.Name, typeStr)
		fmt.Printf("      %s", f.Usage)
		if f.DefValue != "" && f.DefValue != "false" {
			fmt.Printf(" (default: %s)", f.DefValue)
		}
		fmt.Println()
	})
}

// flagTypeName returns a human-readable type name for the flag
func flagTypeName(f *flag.Flag) string {
	// Check the default value to infer type
	if f.DefValue == "0" || strings.HasPrefix(f.DefValue, "-") || isNumeric(f.DefValue) {
		return "int"
	}
	if f.DefValue == "0s" || strings.HasSuffix(f.DefValue, "s") || strings.HasSuffix(f.DefValue, "m") || strings.HasSuffix(f.DefValue, "h") {
		return "duration"
	}
	return "string"
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// reorderArgs moves flags ahead of positional arguments so that
// "export d1 --output dir" parses like "export --output dir d1". A flag
// consumes the following argument as its value unless fs declares it
// boolean or the value is given inline with "=".
func reorderArgs(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}
		flags = append(flags, arg)

		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if isBoolFlag(fs, name) {
			continue
		}
		if i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}

	return append(flags, positional...)
}

func isBoolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && bf.IsBoolFlag()
}
