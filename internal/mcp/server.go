// Package mcp exposes a built manifest to agent clients over the Model
// Context Protocol, so experiment results can be queried without scraping
// the frontend.
package mcp

import (
	"context"
	"fmt"
	"sort"

	"alignbrowser/internal/logging"
	"alignbrowser/internal/manifest"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server around one loaded manifest. The
// manifest is immutable, so no locking is needed across tool calls.
type Server struct {
	MCPServer *sdkmcp.Server
	manifest  *manifest.Manifest
}

// NewServer creates an MCP server serving the given manifest.
func NewServer(m *manifest.Manifest, version string) *Server {
	s := &Server{manifest: m}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "alignbrowser", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_manifest_meta",
		Description: "Get manifest metadata: experiment count, decision-maker types, LLM backbones, KDMA combinations, generation timestamp.",
	}, s.handleGetManifestMeta)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_experiments",
		Description: "List every experiment leaf in the manifest, optionally filtered by decision-maker type.",
	}, s.handleListExperiments)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_experiment",
		Description: "Get the artifact paths and config for one experiment leaf, addressed by decision-maker, backbone, KDMA signature, and scenario.",
	}, s.handleGetExperiment)
}

// --- Tool input/output types ---

type getManifestMetaInput struct{}

type getManifestMetaOutput struct {
	Metadata manifest.Metadata `json:"metadata"`
}

type listExperimentsInput struct {
	ADM string `json:"adm,omitempty" jsonschema:"only list experiments for this decision-maker type"`
}

// ExperimentRef addresses one manifest leaf.
type ExperimentRef struct {
	ADM           string `json:"adm"`
	LLMBackbone   string `json:"llm_backbone"`
	KDMASignature string `json:"kdma_signature"`
	ScenarioID    string `json:"scenario_id"`
}

type listExperimentsOutput struct {
	Experiments []ExperimentRef `json:"experiments"`
	Total       int             `json:"total"`
}

type getExperimentInput struct {
	ADM           string `json:"adm" jsonschema:"decision-maker type, variant qualified as in the manifest"`
	LLMBackbone   string `json:"llm_backbone" jsonschema:"LLM backbone name, or no_llm"`
	KDMASignature string `json:"kdma_signature" jsonschema:"sorted dimension-value signature, e.g. merit-0.5"`
	ScenarioID    string `json:"scenario_id" jsonschema:"scenario id"`
}

type getExperimentOutput struct {
	Entry manifest.ScenarioEntry `json:"entry"`
}

// --- Tool handlers ---

func (s *Server) handleGetManifestMeta(_ context.Context, _ *sdkmcp.CallToolRequest, _ getManifestMetaInput) (*sdkmcp.CallToolResult, getManifestMetaOutput, error) {
	return nil, getManifestMetaOutput{Metadata: s.manifest.Metadata}, nil
}

func (s *Server) handleListExperiments(_ context.Context, _ *sdkmcp.CallToolRequest, input listExperimentsInput) (*sdkmcp.CallToolResult, listExperimentsOutput, error) {
	var refs []ExperimentRef
	for adm, byBackbone := range s.manifest.Experiments {
		if input.ADM != "" && adm != input.ADM {
			continue
		}
		for backbone, bySig := range byBackbone {
			for sig, scenarios := range bySig {
				for scenario := range scenarios {
					refs = append(refs, ExperimentRef{
						ADM:           adm,
						LLMBackbone:   backbone,
						KDMASignature: sig,
						ScenarioID:    scenario,
					})
				}
			}
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if a.ADM != b.ADM {
			return a.ADM < b.ADM
		}
		if a.LLMBackbone != b.LLMBackbone {
			return a.LLMBackbone < b.LLMBackbone
		}
		if a.KDMASignature != b.KDMASignature {
			return a.KDMASignature < b.KDMASignature
		}
		return a.ScenarioID < b.ScenarioID
	})

	logging.New("mcp").Debug("list_experiments", "total", len(refs), "adm_filter", input.ADM)
	return nil, listExperimentsOutput{Experiments: refs, Total: len(refs)}, nil
}

func (s *Server) handleGetExperiment(_ context.Context, _ *sdkmcp.CallToolRequest, input getExperimentInput) (*sdkmcp.CallToolResult, getExperimentOutput, error) {
	byBackbone, ok := s.manifest.Experiments[input.ADM]
	if !ok {
		return nil, getExperimentOutput{}, fmt.Errorf("unknown decision-maker type %q", input.ADM)
	}
	bySig, ok := byBackbone[input.LLMBackbone]
	if !ok {
		return nil, getExperimentOutput{}, fmt.Errorf("no backbone %q under %q", input.LLMBackbone, input.ADM)
	}
	scenarios, ok := bySig[input.KDMASignature]
	if !ok {
		return nil, getExperimentOutput{}, fmt.Errorf("no KDMA signature %q under %s/%s", input.KDMASignature, input.ADM, input.LLMBackbone)
	}
	entry, ok := scenarios[input.ScenarioID]
	if !ok {
		return nil, getExperimentOutput{}, fmt.Errorf("no scenario %q under %s/%s/%s", input.ScenarioID, input.ADM, input.LLMBackbone, input.KDMASignature)
	}
	return nil, getExperimentOutput{Entry: entry}, nil
}
