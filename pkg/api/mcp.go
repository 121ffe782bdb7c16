package api

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/hazyhaar/energle/pkg/game"
	"github.com/hazyhaar/energle/pkg/kit"
)

// RegisterMCPTools registers the game's MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, svc *game.Service, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	eps := newEndpoints(svc, func(name string) kit.Middleware { return kit.Logging(logger, name) })

	kit.RegisterMCPTool(srv, mcp.NewTool("dataset_info",
		mcp.WithDescription("Describe the active energy dataset: source, selected year, available years and dataset families."),
	), eps.datasetInfo, noArgs)

	kit.RegisterMCPTool(srv, mcp.NewTool("set_year",
		mcp.WithDescription("Switch the active dataset year. Unknown years fall back to the dataset's default year."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Year to load (e.g. 2020)")),
		mcp.WithString("economy", mcp.Description("Economy code whose shard should be loaded first (e.g. 01_AUS)")),
	), eps.setYear, decodeSetYear)

	kit.RegisterMCPTool(srv, mcp.NewTool("switch_family",
		mcp.WithDescription("Reload the dataset preferring another family (e.g. apec, world)."),
		mcp.WithString("family", mcp.Required(), mcp.Description("Dataset family ID")),
	), eps.switchFamily, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		family, _ := req.GetArguments()["family"].(string)
		if family == "" {
			return nil, fmt.Errorf("family is required")
		}
		return &kit.MCPDecodeResult{Request: &switchFamilyReq{Family: family}}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("get_round",
		mcp.WithDescription("Show the clue of a round: the target economy's energy balance, without its name."),
		mcp.WithString("key", mcp.Description("Round key; defaults to today's daily round")),
		mcp.WithBoolean("practice", mcp.Description("Start a new practice round instead of the daily one")),
	), eps.round, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		key, _ := args["key"].(string)
		return &kit.MCPDecodeResult{Request: &roundReq{Key: key, Practice: cast.ToBool(args["practice"])}}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("submit_guess",
		mcp.WithDescription("Guess the economy of a round by name or code. Returns distance and proximity scores."),
		mcp.WithString("guess", mcp.Required(), mcp.Description("Economy name or code (e.g. Japan, 08_JPN)")),
		mcp.WithString("key", mcp.Description("Round key; defaults to today's daily round")),
	), eps.guess, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		guess, _ := args["guess"].(string)
		key, _ := args["key"].(string)
		return &kit.MCPDecodeResult{Request: &guessReq{Key: key, Input: guess}}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("list_guesses",
		mcp.WithDescription("List the guesses recorded for a round."),
		mcp.WithString("key", mcp.Description("Round key; defaults to today's daily round")),
	), eps.guesses, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		key, _ := req.GetArguments()["key"].(string)
		return &kit.MCPDecodeResult{Request: &guessesReq{Key: key}}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("suggest_economies",
		mcp.WithDescription("List economy names starting with a prefix."),
		mcp.WithString("query", mcp.Description("Name prefix")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of suggestions")),
	), eps.suggestions, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		query, _ := args["query"].(string)
		return &kit.MCPDecodeResult{Request: &suggestionsReq{Query: query, Limit: cast.ToInt(args["limit"])}}, nil
	})
}

func noArgs(mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	return &kit.MCPDecodeResult{Request: nil}, nil
}

func decodeSetYear(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	args := req.GetArguments()
	year, err := cast.ToIntE(args["year"])
	if err != nil {
		return nil, fmt.Errorf("year: %w", err)
	}
	economy, _ := args["economy"].(string)
	return &kit.MCPDecodeResult{Request: &setYearReq{Year: year, Economy: economy}}, nil
}
