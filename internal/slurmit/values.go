package slurmit

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Justype/slurmit/internal/pyscript"
	"github.com/Justype/slurmit/internal/utils"
)

// Local tags understood in manifests and on the command line.
const (
	TagPath  = "!path"  // scalar rendered as a pathlib path
	TagTuple = "!tuple" // sequence rendered as a tuple
)

// ErrUnsupportedNode is returned for YAML nodes with no Python value.
var ErrUnsupportedNode = errors.New("unsupported YAML value")

// NodeValue converts a decoded YAML node into a value the literal renderer
// accepts. Mappings keep their key order.
func NodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return NodeValue(n.Content[0])
	case yaml.AliasNode:
		return NodeValue(n.Alias)
	case yaml.ScalarNode:
		return scalarValue(n)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := NodeValue(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if n.Tag == TagTuple {
			return pyscript.Tuple(items), nil
		}
		return items, nil
	case yaml.MappingNode:
		d := pyscript.NewDict()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: non-scalar key at line %d", ErrUnsupportedNode, k.Line)
			}
			val, err := NodeValue(v)
			if err != nil {
				return nil, err
			}
			d.Set(k.Value, val)
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: kind %d at line %d", ErrUnsupportedNode, n.Kind, n.Line)
}

func scalarValue(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		err := n.Decode(&b)
		return b, err
	case "!!int":
		var i int
		err := n.Decode(&i)
		return i, err
	case "!!float":
		var f float64
		err := n.Decode(&f)
		return f, err
	case TagPath:
		return pyscript.Path(n.Value), nil
	case "!!str", "!!timestamp", "!!binary":
		return n.Value, nil
	}
	return nil, fmt.Errorf("%w: tag %s at line %d", ErrUnsupportedNode, n.Tag, n.Line)
}

// ParseValue reads a command-line value as a YAML flow value, so "3" is an
// int, "[1, 2]" a list and "!path data/x" a path. Text that is not valid
// YAML is taken as a plain string.
func ParseValue(s string) (any, error) {
	if strings.TrimSpace(s) == "" {
		return s, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s), &node); err != nil {
		utils.PrintDebug("Value %q is not YAML, using it as a string: %v", s, err)
		return s, nil
	}
	return NodeValue(&node)
}

// ParseArguments builds call arguments from "name=value" pairs, in order.
func ParseArguments(pairs []string) (*pyscript.Arguments, error) {
	args := pyscript.NewArguments()
	for _, pair := range pairs {
		key, raw, err := utils.ParseKeyValue(pair)
		if err != nil {
			return nil, err
		}
		if args.Has(key) {
			return nil, fmt.Errorf("argument %s is given twice", key)
		}
		v, err := ParseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", key, err)
		}
		args.Set(key, v)
	}
	return args, nil
}
