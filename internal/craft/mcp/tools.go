package mcp

import (
	"context"
	"encoding/json"

	"github.com/atlasforge/craftchain/internal/craft/engine"
	"github.com/atlasforge/craftchain/pkg/graph"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is a simplified JSON Schema representation.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a schema property.
type Property struct {
	Type        string    `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
	Default     any       `json:"default,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Minimum     *float64  `json:"minimum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// GetToolDefinitions returns all tool definitions.
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		itemLookupTool(),
		itemUsesTool(),
		billOfMaterialsTool(),
		formulaCyclesTool(),
		catalogStatsTool(),
	}
}

func itemLookupTool() ToolDefinition {
	return ToolDefinition{
		Name:        "item_lookup",
		Description: "Look up an item by id or name search. Returns the item, every formula that produces it priced against base values, and the cheapest way to make it.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Exact item id, or a name fragment to search for",
				},
			},
			Required: []string{"query"},
		},
	}
}

func itemUsesTool() ToolDefinition {
	return ToolDefinition{
		Name:        "item_uses",
		Description: "Find every formula that consumes an item, priced and sorted by profit. Useful to decide what to do with a surplus material.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"item_id": {
					Type:        "string",
					Description: "Item to look up consumers for",
				},
			},
			Required: []string{"item_id"},
		},
	}
}

func billOfMaterialsTool() ToolDefinition {
	minMultiple := 1.0
	minDepth := 1.0

	return ToolDefinition{
		Name:        "bill_of_materials",
		Description: "Calculate the complete recursive bill of materials for an item. Returns raw materials, the production steps in dependency order, refinery allocations and time estimates.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"item_id": {
					Type:        "string",
					Description: "Item to calculate the bill for",
				},
				"multiple": {
					Type:        "integer",
					Description: "How many batches to build",
					Default:     1,
					Minimum:     &minMultiple,
				},
				"avoid": {
					Type:        "array",
					Description: "Raw material ids to steer away from",
					Items:       &Property{Type: "string"},
				},
				"prefer_craft": {
					Type:        "boolean",
					Description: "Rank craft formulas above refining when choosing",
					Default:     false,
				},
				"max_depth": {
					Type:        "integer",
					Description: "Cap on the ingredient walk depth",
					Minimum:     &minDepth,
				},
			},
			Required: []string{"item_id"},
		},
	}
}

func formulaCyclesTool() ToolDefinition {
	minDepth := 1.0
	minLimit := 1.0

	return ToolDefinition{
		Name:        "formula_cycles",
		Description: "Detect closed production cycles where an item can be turned back into itself. Returns chains ranked by estimated profit with material balance and time estimates.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"item_ids": {
					Type:        "array",
					Description: "Items to seed the walk from; empty scans every producible item",
					Items:       &Property{Type: "string"},
				},
				"order": {
					Type:        "string",
					Description: "Walk order; only DFS closes cycles reliably",
					Enum:        []string{"DFS", "BFS"},
					Default:     "DFS",
				},
				"max_depth": {
					Type:        "integer",
					Description: "Cap on the walk depth",
					Minimum:     &minDepth,
				},
				"limit": {
					Type:        "integer",
					Description: "Max ranked chains per result item",
					Minimum:     &minLimit,
				},
			},
		},
	}
}

func catalogStatsTool() ToolDefinition {
	minTop := 1.0

	return ToolDefinition{
		Name:        "catalog_stats",
		Description: "Summarize the stored catalog: item and formula counts, breakdowns by type, class and rarity, and the most used ingredients.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"top_used": {
					Type:        "integer",
					Description: "How many most-used ingredients to include",
					Default:     5,
					Minimum:     &minTop,
				},
			},
		},
	}
}

// Tool handlers

func (s *Server) toolItemLookup(ctx context.Context, args json.RawMessage) (any, error) {
	var p struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, err
	}
	res, err := s.engine.ItemLookup(ctx, p.Query)
	if err != nil {
		return nil, err
	}
	return lookupToWire(res), nil
}

func (s *Server) toolItemUses(ctx context.Context, args json.RawMessage) (any, error) {
	var p struct {
		ItemID string `json:"item_id"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, err
	}
	res, err := s.engine.ItemUses(ctx, p.ItemID)
	if err != nil {
		return nil, err
	}
	return usesToWire(res), nil
}

func (s *Server) toolBillOfMaterials(ctx context.Context, args json.RawMessage) (any, error) {
	var req engine.BOMRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	res, err := s.engine.BuildBOM(ctx, req)
	if err != nil {
		return nil, err
	}
	return bomToWire(res), nil
}

func (s *Server) toolFormulaCycles(ctx context.Context, args json.RawMessage) (any, error) {
	var p struct {
		ItemIDs  []string `json:"item_ids"`
		Order    string   `json:"order"`
		MaxDepth int      `json:"max_depth"`
		Limit    int      `json:"limit"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
	}
	order, err := graph.ParseOrder(p.Order)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.FormulaCycles(ctx, engine.CyclesRequest{
		ItemIDs:  p.ItemIDs,
		Order:    order,
		MaxDepth: p.MaxDepth,
		Limit:    p.Limit,
	})
	if err != nil {
		return nil, err
	}
	return cyclesToWire(res), nil
}

func (s *Server) toolCatalogStats(ctx context.Context, args json.RawMessage) (any, error) {
	p := struct {
		TopUsed int `json:"top_used"`
	}{TopUsed: 5}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
	}
	stats, err := s.engine.Stats(ctx, p.TopUsed)
	if err != nil {
		return nil, err
	}
	return statsToWire(stats), nil
}
