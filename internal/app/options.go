package app

// Version is reported by the version command.
const Version = "v0.3.0"

// Command names.
const (
	CmdInspect = "inspect"
	CmdConvert = "convert"
	CmdDigest  = "digest"
	CmdIndex   = "index"
	CmdList    = "list"
	CmdDiff    = "diff"
	CmdVersion = "version"
)

// Options is what the command line asks for. Empty strings and nil
// pointers leave the config file value in place.
type Options struct {
	ConfigPath string // empty: config.DefaultPath, missing file allowed
	LogLevel   string
	LogFormat  string
	Trace      *bool
	Filter     string
	Catalog    string

	Command string
	Args    []string

	// convert only
	Compression string
	Indent      *bool
	Flat        *bool
}
