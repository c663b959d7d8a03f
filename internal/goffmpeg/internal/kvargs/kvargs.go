// Package kvargs turns option maps into command line arguments in a stable order
package kvargs

import (
	"sort"
	"strings"
)

// MapToSortedArgs {b: "2", a: "1"} -> [argFn("a", "1")..., argFn("b", "2")...]
func MapToSortedArgs(m map[string]string, argFn func(k, v string) []string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []string
	for _, k := range keys {
		args = append(args, argFn(k, m[k])...)
	}
	return args
}

// OptionArg {"k": "v"} -> ["-k"+suffix, "v"]
func OptionArg(suffix string) func(k, v string) []string {
	return func(k, v string) []string {
		if !strings.HasPrefix(k, "-") {
			k = "-" + k
		}
		return []string{k + suffix, v}
	}
}

// FilterOption {"k": "v"} -> ["k=v"] with filter graph separators escaped
func FilterOption(k, v string) []string {
	r := strings.NewReplacer(`\`, `\\`, `,`, `\,`, `:`, `\:`, `;`, `\;`)
	return []string{k + "=" + r.Replace(v)}
}
