package mcptool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"slidegen/internal/app"
	"slidegen/internal/deck"
)

const (
	Version  = "0.1.0"
	ToolName = "generate_from_topic"
)

type TopicGenerator interface {
	FromTopic(ctx context.Context, req app.TopicRequest) (*app.Result, error)
}

type GenerateRequest struct {
	Topic        string `json:"topic"`
	SlideCount   int    `json:"slide_count"`
	OutputPath   string `json:"output_path"`
	TemplateMode bool   `json:"template_mode"`
}

type GenerateResponse struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Slides     int    `json:"slides"`
	ArchiveURL string `json:"archive_url,omitempty"`
}

// NewServer exposes deck generation as a single MCP tool.
func NewServer(gen TopicGenerator) *server.MCPServer {
	s := server.NewMCPServer(
		"slidegen",
		Version,
		server.WithToolCapabilities(false),
	)

	tool := mcp.NewTool(ToolName,
		mcp.WithDescription("Generate a .pptx slide deck about a topic and return its path on disk"),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Subject of the presentation"),
		),
		mcp.WithNumber("slide_count",
			mcp.Required(),
			mcp.Description("Total number of slides; template mode accepts 3 to 20"),
		),
		mcp.WithString("output_path",
			mcp.Description("File name for the deck, must end in .pptx (default output.pptx)"),
		),
		mcp.WithBoolean("template_mode",
			mcp.Description("Fill the configured template instead of building a freeform deck"),
		),
	)

	s.AddTool(tool, mcp.NewTypedToolHandler(generateHandler(gen)))
	return s
}

func generateHandler(gen TopicGenerator) func(ctx context.Context, request mcp.CallToolRequest, args GenerateRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args GenerateRequest) (*mcp.CallToolResult, error) {
		if args.Topic == "" {
			return mcp.NewToolResultError("topic is required"), nil
		}
		if args.SlideCount < 1 {
			return mcp.NewToolResultError("slide_count must be at least 1"), nil
		}
		if args.OutputPath == "" {
			args.OutputPath = deck.DefaultOutputPath
		}

		result, err := gen.FromTopic(ctx, app.TopicRequest{
			Topic:        args.Topic,
			SlideCount:   args.SlideCount,
			OutputPath:   args.OutputPath,
			TemplateMode: args.TemplateMode,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to generate deck: %v", err)), nil
		}

		body, err := json.Marshal(GenerateResponse{
			ID:         result.ID,
			Path:       result.OutputPath,
			Slides:     result.Slides,
			ArchiveURL: result.ArchiveURL,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}
