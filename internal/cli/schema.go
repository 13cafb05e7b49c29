package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
)

// SchemaCmd outputs the command tree as JSON for scripts and agents
type SchemaCmd struct {
	Command string `arg:"" optional:"" help:"Command path to show schema for (e.g., 'export history')"`
}

// SchemaNode represents a command in the tree
type SchemaNode struct {
	Name     string        `json:"name"`
	Help     string        `json:"help,omitempty"`
	Flags    []*SchemaFlag `json:"flags,omitempty"`
	Args     []*SchemaArg  `json:"args,omitempty"`
	Children []*SchemaNode `json:"commands,omitempty"`
}

// SchemaFlag represents a command flag
type SchemaFlag struct {
	Name    string   `json:"name"`
	Help    string   `json:"help,omitempty"`
	Type    string   `json:"type"`
	Default string   `json:"default,omitempty"`
	Enum    []string `json:"enum,omitempty"`
	Short   string   `json:"short,omitempty"`
	Env     string   `json:"env,omitempty"`
}

// SchemaArg represents a positional argument
type SchemaArg struct {
	Name     string `json:"name"`
	Help     string `json:"help,omitempty"`
	Required bool   `json:"required,omitempty"`
}

func (cmd *SchemaCmd) Run(ctx *kong.Context, streams *IO) error {
	node, err := findNodeByPath(ctx.Model.Node, cmd.Command)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(streams.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(buildSchemaNode(node))
}

func buildSchemaNode(node *kong.Node) *SchemaNode {
	schema := &SchemaNode{Name: node.Name, Help: node.Help}

	for _, flag := range node.Flags {
		if flag.Name == "help" || flag.Hidden {
			continue
		}

		sf := &SchemaFlag{
			Name:    flag.Name,
			Help:    flag.Help,
			Type:    "string",
			Default: flag.Default,
		}
		if flag.Value != nil && flag.Value.Target.IsValid() {
			sf.Type = flag.Value.Target.Type().String()
		}
		if len(flag.Envs) > 0 {
			sf.Env = flag.Envs[0]
		}
		if flag.Short != 0 {
			sf.Short = string(flag.Short)
		}
		if flag.Enum != "" {
			for _, v := range strings.Split(flag.Enum, ",") {
				if v != "" {
					sf.Enum = append(sf.Enum, v)
				}
			}
		}
		schema.Flags = append(schema.Flags, sf)
	}

	for _, arg := range node.Positional {
		schema.Args = append(schema.Args, &SchemaArg{Name: arg.Name, Help: arg.Help, Required: arg.Required})
	}

	for _, child := range node.Children {
		if child.Hidden {
			continue
		}
		schema.Children = append(schema.Children, buildSchemaNode(child))
	}
	return schema
}

// findNodeByPath walks the node tree to a space-separated command path
func findNodeByPath(root *kong.Node, path string) (*kong.Node, error) {
	current := root
	for _, part := range strings.Fields(path) {
		var next *kong.Node
		for _, child := range current.Children {
			if child.Name == part {
				next = child
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("command not found: %s", path)
		}
		current = next
	}
	return current, nil
}
