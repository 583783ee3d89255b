package config

import "github.com/hashicorp/hcl/v2"

type BlockHandler interface {
	Type() string
	Process(config *Config, block *hcl.Block) hcl.Diagnostics
	FinishProcessing(config *Config) hcl.Diagnostics
}

type BlockHandlerBase struct{}

func (b *BlockHandlerBase) FinishProcessing(config *Config) hcl.Diagnostics {
	return nil
}

// blockHandlers are run in order, each over every block of its type.
var blockHandlers = []BlockHandler{
	NewBusBlockHandler(),
	NewServerBlockHandler(),
	NewPollBlockHandler(),
}

var configSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{
			Type:       "bus",
			LabelNames: []string{},
		},
		{
			Type:       "server",
			LabelNames: []string{"name"},
		},
		{
			Type:       "poll",
			LabelNames: []string{"name"},
		},
	},
}
