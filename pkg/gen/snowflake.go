package gen

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"engage-controlplane/pkg/config"
)

var Module = fx.Module("gen",
	fx.Provide(NewNode),
)

// NewNode builds the process-wide snowflake node. Each binary must run with a
// distinct SNOWFLAKE_NODE_ID so concurrently generated IDs never collide.
func NewNode(cfg *config.Config) (*snowflake.Node, error) {
	nodeID := cfg.SnowflakeNodeID
	if nodeID == 0 {
		nodeID = 1
	}
	return snowflake.NewNode(nodeID)
}
