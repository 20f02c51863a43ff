package multicast

import (
	"fmt"

	"p4nett/internal/serrors"
)

// Model selects the command dialect a switch target speaks for associating
// replication nodes with multicast groups.
type Model int

const (
	// ModelSimpleSwitch uses "mc_node_associate <mgid> <handle>".
	ModelSimpleSwitch Model = iota
	// ModelGeneric uses "mc_associate_node <mgid> <handle> 0 0".
	ModelGeneric
)

// ParseModel parses a configured target model name. The empty string selects
// the default model.
func ParseModel(s string) (Model, error) {
	switch s {
	case "", "simple_switch":
		return ModelSimpleSwitch, nil
	case "generic":
		return ModelGeneric, nil
	}
	return 0, serrors.Join(serrors.ErrConfig, nil, "target_model", s)
}

func (m Model) String() string {
	switch m {
	case ModelSimpleSwitch:
		return "simple_switch"
	case ModelGeneric:
		return "generic"
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

func (m Model) associate(mgid, handle int) string {
	switch m {
	case ModelGeneric:
		return fmt.Sprintf("mc_associate_node %d %d 0 0", mgid, handle)
	default:
		return fmt.Sprintf("mc_node_associate %d %d", mgid, handle)
	}
}
