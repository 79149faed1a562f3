/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/spf13/cobra"
)

// CommandGroup classifies a subcommand for help output.
type CommandGroup string

const (
	GroupReport  CommandGroup = "report"  // generate
	GroupSupport CommandGroup = "support" // version
)

// Groups lists command groups in help order.
var Groups = []CommandGroup{GroupReport, GroupSupport}

// Title is the heading used for the group in help output.
func (g CommandGroup) Title() string {
	switch g {
	case GroupReport:
		return "Report"
	case GroupSupport:
		return "Support"
	default:
		return string(g)
	}
}

// CommandRegistration is one subcommand known to the registry.
type CommandRegistration struct {
	Name        string
	Group       CommandGroup
	Command     *cobra.Command
	Description string
}

// Section is a titled block of commands for help output.
type Section struct {
	Group    CommandGroup
	Commands []*CommandRegistration
}

// Registry tracks subcommands by name and group.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*CommandRegistration
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*CommandRegistration)}
}

// Register records cmd under group. An empty description falls back to
// cmd.Short. Registering the same name twice is an error.
func (r *Registry) Register(group CommandGroup, cmd *cobra.Command, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := cmd.Name()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}
	if description == "" {
		description = cmd.Short
	}
	r.commands[name] = &CommandRegistration{
		Name:        name,
		Group:       group,
		Command:     cmd,
		Description: description,
	}
	return nil
}

func (r *Registry) GetCommand(name string) (*CommandRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommandsByGroup returns the commands of a group sorted by name.
func (r *Registry) GetCommandsByGroup(group CommandGroup) []*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*CommandRegistration
	for _, reg := range r.commands {
		if reg.Group == group {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Sections returns the non-empty groups in Groups order.
func (r *Registry) Sections() []Section {
	var sections []Section
	for _, g := range Groups {
		if cmds := r.GetCommandsByGroup(g); len(cmds) > 0 {
			sections = append(sections, Section{Group: g, Commands: cmds})
		}
	}
	return sections
}

// WriteHelp prints each section as "<Title> Commands:" followed by an
// aligned name and description per command.
func (r *Registry) WriteHelp(w io.Writer) {
	for _, s := range r.Sections() {
		fmt.Fprintf(w, "%s Commands:\n", s.Group.Title())
		for _, c := range s.Commands {
			fmt.Fprintf(w, "  %-12s %s\n", c.Name, c.Description)
		}
		fmt.Fprintln(w)
	}
}
