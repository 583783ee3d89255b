package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/tsarna/hermes/pkg/hermes/bus"
)

type BusDefinition struct {
	Name       *string `hcl:"name,optional"`
	BufferSize *int    `hcl:"buffer_size,optional"`
}

type BusBlockHandler struct {
	BlockHandlerBase
}

func NewBusBlockHandler() *BusBlockHandler {
	return &BusBlockHandler{}
}

func (h *BusBlockHandler) Type() string {
	return "bus"
}

func (h *BusBlockHandler) Process(config *Config, block *hcl.Block) hcl.Diagnostics {
	if config.busDefRange != nil {
		return hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Bus already defined",
				Detail:   fmt.Sprintf("Bus already defined at %s", config.busDefRange),
				Subject:  &block.DefRange,
			},
		}
	}

	busDef := BusDefinition{}
	diags := gohcl.DecodeBody(block.Body, config.evalCtx, &busDef)
	if diags.HasErrors() {
		return diags
	}

	config.busDefRange = &block.DefRange

	return h.BuildEventBus(config, &busDef, &block.DefRange)
}

// FinishProcessing creates a default bus when no bus block was given.
func (h *BusBlockHandler) FinishProcessing(config *Config) hcl.Diagnostics {
	if config.Bus != nil {
		return nil
	}

	return h.BuildEventBus(config, &BusDefinition{}, &hcl.Range{})
}

func (h *BusBlockHandler) BuildEventBus(config *Config, busDef *BusDefinition, defRange *hcl.Range) hcl.Diagnostics {
	name := "main"
	if busDef.Name != nil {
		name = *busDef.Name
	}

	busBuilder := bus.NewEventBus().
		WithLogger(config.Logger).
		WithName(name).
		WithMetrics(config.Metrics).
		WithTracing(config.Tracing)
	if busDef.BufferSize != nil {
		busBuilder = busBuilder.WithBufferSize(*busDef.BufferSize)
	}

	eventBus, err := busBuilder.Build()
	if err != nil {
		return hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Failed to build event bus",
				Detail:   err.Error(),
				Subject:  defRange,
			},
		}
	}

	config.Bus = eventBus

	return nil
}
