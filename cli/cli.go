package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is read from the working directory when present.
const ConfigFileName = ".repatch.yaml"

// EnvPrefix marks environment variables that override settings.
const EnvPrefix = "REPATCH_"

// Config holds all the command-line flag values.
type Config struct {
	Recipes    []string `koanf:"recipe"`
	Builtin    string   `koanf:"builtin"`
	Markdown   bool     `koanf:"markdown"`
	LookupDirs []string `koanf:"lookup_dir"`
	DryRun     bool     `koanf:"dry_run"`
	Strict     bool     `koanf:"strict"`
	Revert     bool     `koanf:"revert"`
	Redo       bool     `koanf:"redo"`
	List       bool     `koanf:"list"`
	Plain      bool     `koanf:"plain"`
	StateDir   string   `koanf:"state_dir"`
	NoHistory  bool     `koanf:"no_history"`
}

// ErrHelp is returned when -h/--help was requested.
var ErrHelp = pflag.ErrHelp

// NewFlagSet defines the command-line flags.
func NewFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("repatch", pflag.ContinueOnError)

	flags.StringSliceP("recipe", "f", []string{}, "Apply the recipes in this YAML file (repeatable).")
	flags.StringP("builtin", "B", "", "Apply a built-in recipe by name (default: planner-vertical-layout).")
	flags.BoolP("markdown", "m", false, "Read a markdown recipe from stdin (pipe) or the clipboard.")
	flags.StringSliceP("lookup-dir", "l", []string{}, "Directory to resolve target files in (default: current directory).")
	flags.BoolP("dry-run", "n", false, "Print the diff instead of writing files.")
	flags.Bool("strict", false, "Fail without writing when any step does not match.")
	flags.Bool("list", false, "List built-in recipes.")
	flags.Bool("plain", false, "Print plain output instead of the interactive view.")
	flags.String("state-dir", "", "Directory for undo history (default: .repatch at the git root).")
	flags.Bool("no-history", false, "Do not record this run for --revert.")

	// Mutually exclusive history group
	flags.BoolP("revert", "r", false, "Revert the last operation.")
	flags.BoolP("redo", "R", false, "Redo the last reverted operation.")

	flags.Usage = func() {
		fmt.Println("Usage: repatch [flags]")
		fmt.Println("\nRewrite files by replacing regexp-matched blocks with new text.")
		fmt.Println("\nExample: repatch -f migrate.yaml -n")
		fmt.Println("\nFlags:")
		flags.PrintDefaults()
	}
	return flags
}

// ParseFlags defines and parses the process flags, then layers settings.
func ParseFlags() (*Config, error) {
	return Parse(os.Args[1:])
}

// Parse parses args and loads the layered configuration.
func Parse(args []string) (*Config, error) {
	flags := NewFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	return Load(flags)
}

// Load merges settings. Precedence (highest to lowest):
// changed flags > REPATCH_* env vars > .repatch.yaml > defaults.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"recipe":     []string{},
		"builtin":    "",
		"lookup_dir": []string{},
		"strict":     false,
		"plain":      false,
		"state_dir":  "",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if _, err := os.Stat(ConfigFileName); err == nil {
		if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", ConfigFileName, err)
		}
	}

	// REPATCH_LOOKUP_DIR=a,b -> lookup_dir: [a, b]
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if _, ok := listKeys[key]; ok {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are the settings that take comma-separated lists, like their
// StringSlice flags.
var listKeys = map[string]struct{}{
	"recipe":     {},
	"lookup_dir": {},
}

func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate rejects contradictory settings.
func (c *Config) Validate() error {
	if c.Revert && c.Redo {
		return errors.New("error: --revert and --redo are mutually exclusive")
	}
	if (c.Revert || c.Redo) && c.DryRun {
		return errors.New("error: --dry-run cannot be combined with --revert or --redo")
	}
	if c.Builtin != "" && (len(c.Recipes) > 0 || c.Markdown) {
		return errors.New("error: --builtin cannot be combined with --recipe or --markdown")
	}
	return nil
}
