package prog

import "flag"

// FlagSet wraps a [flag.FlagSet]. It also provides methods for flags shared
// by several subprograms; each of them registers its flag only once.
type FlagSet struct {
	*flag.FlagSet
	json     *bool
	settings *string
	node     *string
}

// JSON returns a pointer to the value of the -json flag.
func (fs *FlagSet) JSON() *bool {
	if fs.json == nil {
		var json bool
		fs.BoolVar(&json, "json", false,
			"Show the output from -buildinfo or -command in JSON")
		fs.json = &json
	}
	return fs.json
}

// Settings returns a pointer to the value of the -settings flag.
func (fs *FlagSet) Settings() *string {
	if fs.settings == nil {
		var settings string
		fs.StringVar(&settings, "settings", "",
			"Path to a YAML or TOML file with language server settings")
		fs.settings = &settings
	}
	return fs.settings
}

// Node returns a pointer to the value of the -node flag.
func (fs *FlagSet) Node() *string {
	if fs.node == nil {
		var node string
		fs.StringVar(&node, "node", "node",
			"Node.js binary that runs the language server")
		fs.node = &node
	}
	return fs.node
}
