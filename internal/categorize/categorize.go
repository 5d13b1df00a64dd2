package categorize

import "strings"

const Other = "other"

// taxonomy is matched top to bottom. Tokens are raw lsof command names, which
// are truncated to nine characters and escape spaces as \x20.
var taxonomy = []struct {
	category string
	tokens   []string
}{
	{"system", []string{"launchd", "mDNSRespo", "kdc", "AirPlayXP", "rpcbind"}},
	{"file_sharing", []string{"nfsd", "netbiosd", "rpc.statd", "rpc.lockd", "rpc.rquot"}},
	{"development", []string{`Code\x20H`, "node", "ollama", "Ollama", "com.docke", "Docker"}},
	{"communication", []string{"Mail", "ssh", "rapportd", "identitys"}},
	{"media", []string{"Spotify", `Jump\x20D`}},
	{"browsers", []string{`Brave\x20`, "firefox"}},
	{"productivity", []string{"Windows", "ControlCe"}},
	{"system_services", []string{"homed", "replicato"}},
}

// Categories lists every category in match order, followed by Other.
func Categories() []string {
	out := make([]string, 0, len(taxonomy)+1)
	for _, t := range taxonomy {
		out = append(out, t.category)
	}
	return append(out, Other)
}

// Categorize returns the first category with a token contained in command.
// Matching is case-sensitive.
func Categorize(command string) string {
	for _, t := range taxonomy {
		for _, tok := range t.tokens {
			if strings.Contains(command, tok) {
				return t.category
			}
		}
	}
	return Other
}
