package cli

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/agentregistry-dev/agentconsole/internal/client"
)

// TestCommandTree verifies the CLI command hierarchy is correct.
func TestCommandTree(t *testing.T) {
	root := Root()

	expectedTopLevel := []string{
		"import",
		"inspect",
		"mcp",
		"models",
		"serve",
		"version",
	}

	gotTopLevel := childNames(root)
	slices.Sort(expectedTopLevel)

	if !slices.Equal(expectedTopLevel, gotTopLevel) {
		t.Fatalf("top-level commands mismatch\n  got:  %v\n  want: %v", gotTopLevel, expectedTopLevel)
	}

	// Verify subcommand counts for parent commands
	expectedSubcmdCounts := map[string]int{
		// list, install
		"mcp": 2,
		// list
		"models": 1,
	}

	for _, cmd := range root.Commands() {
		expected, ok := expectedSubcmdCounts[cmd.Name()]
		if !ok {
			continue
		}
		got := len(cmd.Commands())
		if got != expected {
			t.Errorf("%s subcommand count: got %d, want %d (commands: %v)",
				cmd.Name(), got, expected, childNames(cmd))
		}
	}
}

// TestCommandsHaveRequiredMetadata verifies every command has Use and Short fields set.
func TestCommandsHaveRequiredMetadata(t *testing.T) {
	root := Root()

	var walk func(cmd *cobra.Command, path string)
	walk = func(cmd *cobra.Command, path string) {
		if cmd.Use == "" {
			t.Errorf("%s: Use field is empty", path)
		}
		if cmd.Short == "" {
			t.Errorf("%s: Short field is empty", path)
		}
		for _, child := range cmd.Commands() {
			walk(child, path+"/"+child.Name())
		}
	}

	for _, cmd := range root.Commands() {
		walk(cmd, "agentctl/"+cmd.Name())
	}
}

// TestImportFlags verifies flag registration on import.
func TestImportFlags(t *testing.T) {
	importCmd := findSubcommand(Root(), "import")
	if importCmd == nil {
		t.Fatal("import command not found")
	}

	tests := []struct {
		flag     string
		defValue string
	}{
		{"force", "false"},
		{"model-id", "0"},
		{"model-name", ""},
		{"agent-model", "[]"},
		{"set", "[]"},
		{"mcp-url", "[]"},
		{"non-interactive", "false"},
		{"output", "table"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := importCmd.Flags().Lookup(tt.flag)
			if f == nil {
				t.Fatalf("flag --%s not found on import", tt.flag)
			}
			if f.DefValue != tt.defValue {
				t.Errorf("flag --%s default = %q, want %q", tt.flag, f.DefValue, tt.defValue)
			}
		})
	}
}

// TestRootPersistentFlags verifies persistent flags on the root command.
func TestRootPersistentFlags(t *testing.T) {
	root := Root()

	persistentFlags := []string{"platform-url", "platform-token", "verbose"}
	for _, name := range persistentFlags {
		t.Run(name, func(t *testing.T) {
			f := root.PersistentFlags().Lookup(name)
			if f == nil {
				t.Fatalf("persistent flag --%s not found on root command", name)
			}
		})
	}
}

// TestArgsValidators verifies that commands enforce correct argument counts.
func TestArgsValidators(t *testing.T) {
	root := Root()

	tests := []struct {
		parent  string
		command string
		args    int
		wantErr bool
	}{
		// Parent commands accept arbitrary args
		{"", "mcp", 0, false},
		{"", "models", 0, false},
		// Commands requiring exactly 1 arg
		{"", "import", 1, false},
		{"", "import", 0, true},
		{"", "import", 2, true},
		{"", "inspect", 1, false},
		{"", "inspect", 0, true},
		// mcp install requires a name and a URL
		{"mcp", "install", 2, false},
		{"mcp", "install", 1, true},
		{"mcp", "list", 0, false},
		{"mcp", "list", 1, true},
		{"models", "list", 1, true},
		{"", "serve", 1, true},
		{"", "version", 0, false},
	}

	for _, tt := range tests {
		name := tt.command
		if tt.parent != "" {
			name = tt.parent + "/" + tt.command
		}
		t.Run(name+"/"+argsDesc(tt.args, tt.wantErr), func(t *testing.T) {
			var cmd *cobra.Command
			if tt.parent == "" {
				cmd = findSubcommand(root, tt.command)
			} else {
				parentCmd := findSubcommand(root, tt.parent)
				if parentCmd == nil {
					t.Fatalf("parent command %q not found", tt.parent)
				}
				cmd = findSubcommand(parentCmd, tt.command)
			}
			if cmd == nil {
				t.Fatalf("command %q not found", tt.command)
			}
			if cmd.Args == nil {
				if tt.wantErr {
					t.Errorf("command %q has no Args validator but expected error with %d args", name, tt.args)
				}
				return
			}
			args := make([]string, tt.args)
			for i := range args {
				args[i] = "test"
			}
			err := cmd.Args(cmd, args)
			if (err != nil) != tt.wantErr {
				t.Errorf("command %q Args(%d args) error = %v, wantErr %v", name, tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", client.DefaultBaseURL},
		{"  ", client.DefaultBaseURL},
		{"platform.internal:5010/api", "http://platform.internal:5010/api"},
		{"https://platform.example.com/api/", "https://platform.example.com/api"},
	}
	for _, tt := range tests {
		if got := normalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestVersionRunsOffline verifies version does not need a platform.
func TestVersionRunsOffline(t *testing.T) {
	root := Root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--platform-url", "http://127.0.0.1:1"})
	t.Cleanup(func() {
		root.SetOut(nil)
		root.SetArgs(nil)
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "agentctl ") {
		t.Errorf("unexpected version output %q", out.String())
	}
}

// childNames returns sorted names of a command's direct children, leaving out
// the help and completion commands cobra adds on first execution.
func childNames(cmd *cobra.Command) []string {
	children := cmd.Commands()
	names := make([]string, 0, len(children))
	for _, c := range children {
		if c.Name() == "help" || c.Name() == "completion" {
			continue
		}
		names = append(names, c.Name())
	}
	slices.Sort(names)
	return names
}

// findSubcommand finds a direct child command by name.
func findSubcommand(parent *cobra.Command, name string) *cobra.Command {
	for _, cmd := range parent.Commands() {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

// argsDesc returns a short description for test naming.
func argsDesc(n int, wantErr bool) string {
	if wantErr {
		return fmt.Sprintf("rejects_%d_args", n)
	}
	return fmt.Sprintf("accepts_%d_args", n)
}
