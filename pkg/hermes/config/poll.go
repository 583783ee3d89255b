package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/tsarna/hermes/pkg/hermes/poller"
	"github.com/tsarna/hermes/pkg/hermes/topic"
)

type PollDefinition struct {
	Name       string   `hcl:",label"`
	Schedule   string   `hcl:"schedule"`
	Site       string   `hcl:"site,optional"`
	Components []string `hcl:"components"`
	Timezone   string   `hcl:"timezone,optional"`
	Disabled   bool     `hcl:"disabled,optional"`
}

type PollBlockHandler struct {
	BlockHandlerBase
}

func NewPollBlockHandler() *PollBlockHandler {
	return &PollBlockHandler{}
}

func (h *PollBlockHandler) Type() string {
	return "poll"
}

func (h *PollBlockHandler) Process(config *Config, block *hcl.Block) hcl.Diagnostics {
	pollDef := PollDefinition{}
	diags := gohcl.DecodeBody(block.Body, config.evalCtx, &pollDef)
	if diags.HasErrors() {
		return diags
	}
	pollDef.Name = block.Labels[0]

	if pollDef.Disabled {
		return nil
	}

	if _, ok := config.Pollers[pollDef.Name]; ok {
		return hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Poll already defined",
				Detail:   fmt.Sprintf("Poll %s is defined more than once", pollDef.Name),
				Subject:  &block.DefRange,
			},
		}
	}

	if pollDef.Timezone == "" {
		pollDef.Timezone = "Local"
	}
	location, err := time.LoadLocation(pollDef.Timezone)
	if err != nil {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid timezone",
			Detail:   fmt.Sprintf("Invalid timezone: %s", pollDef.Timezone),
			Subject:  &block.DefRange,
		})
	}

	components := make([]topic.ComponentTag, 0, len(pollDef.Components))
	for _, name := range pollDef.Components {
		c, ok := topic.ParseComponentTag(name)
		if !ok {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid component",
				Detail:   fmt.Sprintf("Unknown component %q", name),
				Subject:  &block.DefRange,
			})
			continue
		}
		components = append(components, c)
	}
	if diags.HasErrors() {
		return diags
	}

	p, err := poller.NewPoller().
		WithBus(config.Bus).
		WithLogger(config.Logger.Named(pollDef.Name)).
		WithMetrics(config.Metrics).
		WithLocation(location).
		AddJob(poller.Job{
			Name:       pollDef.Name,
			Schedule:   pollDef.Schedule,
			Site:       pollDef.Site,
			Components: components,
		}).
		Build()
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid poll",
			Detail:   err.Error(),
			Subject:  &block.DefRange,
		})
	}

	config.Pollers[pollDef.Name] = p

	return diags
}
