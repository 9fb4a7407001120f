package credentials

import (
	"os"
	"strings"

	"watson-dash/pkg/model"
)

// LookupFunc resolves a credential by name. os.LookupEnv satisfies it.
type LookupFunc func(name string) (string, bool)

// Env looks credentials up in the process environment.
var Env LookupFunc = os.LookupEnv

// Map returns a LookupFunc backed by a fixed set of values.
func Map(values map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

func present(lookup LookupFunc, name string) bool {
	v, ok := lookup(name)
	return ok && strings.TrimSpace(v) != ""
}

// CheckAI reports whether the AI service credential is set. No network call is made.
func CheckAI(lookup LookupFunc, name string) model.AIStatus {
	st := model.AIStatus{Status: model.StatusRequiresConfig, Credential: name}
	if present(lookup, name) {
		st.Status = model.StatusConfigured
	}
	return st
}

// Discover returns which of names are set, in the order given. The keys
// themselves are not validated against their providers.
func Discover(lookup LookupFunc, names []string) model.KeysStatus {
	found := make([]string, 0, len(names))
	for _, name := range names {
		if present(lookup, name) {
			found = append(found, name)
		}
	}
	st := model.KeysStatus{Status: model.StatusRequiresConfig, Count: len(found), Keys: found}
	if len(found) > 0 {
		st.Status = model.StatusConfigured
	}
	return st
}
