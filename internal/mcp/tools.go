package mcp

import (
	"context"
	"errors"
	"strings"

	"unixman/internal/library"
	"unixman/internal/manual"
	"unixman/internal/validation"

	"github.com/mark3labs/mcp-go/mcp"
)

// DocEngine is the documentation surface the tools call into. It is
// satisfied by *manual.Engine; tests substitute fakes.
type DocEngine interface {
	Documentation(ctx context.Context, req manual.DocRequest) (*manual.DocResult, error)
	Check(ctx context.Context, command string) (*manual.CheckResult, error)
}

// CommandLister renders the installed-commands listing. Satisfied by
// *catalog.Lister.
type CommandLister interface {
	Report() string
}

// SheetLibrary looks up cheatsheets by command name. Satisfied by
// *library.Manager.
type SheetLibrary interface {
	Lookup(name string) (*library.Sheet, error)
}

// CheckCommandResult is the structured output of check-command-exists.
type CheckCommandResult struct {
	Name    string `json:"name"`
	Exists  bool   `json:"exists"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// CheatsheetResult is the structured output of get-command-cheatsheet.
type CheatsheetResult struct {
	Command     string   `json:"command"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type documentationInput struct {
	Command        string `json:"command"`
	PreferEconomic *bool  `json:"prefer_economic"`
	ManSection     int    `json:"man_section"`
}

type commandInput struct {
	Command string `json:"command"`
}

// documentationTool defines the get-command-documentation schema.
func documentationTool() mcp.Tool {
	return mcp.NewTool(
		"get-command-documentation",
		mcp.WithDescription("Get documentation for a Unix command, from --help style output or the man page"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command to document. Only the first word is resolved; a bare second word is tried as a subcommand (\"git commit\")"),
		),
		mcp.WithBoolean("prefer_economic",
			mcp.DefaultBool(true),
			mcp.Description("Try the short --help style output before the full man page"),
		),
		mcp.WithNumber("man_section",
			mcp.Description("Man section 1-9 to consult; values outside that range are ignored"),
		),
	)
}

// documentationHandler answers documentation lookups.
//
// Lookup outcomes that are part of the protocol (invalid name, unknown
// command, no documentation found) are plain text responses, not tool
// errors: clients present them to the model as regular answers.
func documentationHandler(engine DocEngine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input documentationInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid documentation arguments", err), nil
		}

		preferEconomic := true
		if input.PreferEconomic != nil {
			preferEconomic = *input.PreferEconomic
		}

		result, err := engine.Documentation(ctx, manual.DocRequest{
			Command:        input.Command,
			PreferEconomic: preferEconomic,
			ManSection:     input.ManSection,
		})
		if err != nil {
			return mcp.NewToolResultText(manual.ErrorMessage(err)), nil
		}

		return mcp.NewToolResultText(result.Message()), nil
	}
}

// listCommandsTool defines the list-common-commands schema.
func listCommandsTool() mcp.Tool {
	return mcp.NewTool(
		"list-common-commands",
		mcp.WithDescription("List the common Unix commands installed on this system, grouped by category"),
	)
}

// listCommandsHandler renders the installed-commands report.
func listCommandsHandler(lister CommandLister) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(lister.Report()), nil
	}
}

// checkCommandTool defines the check-command-exists schema.
func checkCommandTool() mcp.Tool {
	return mcp.NewTool(
		"check-command-exists",
		mcp.WithDescription("Check whether a command exists on this system and report its version if available"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command name to check"),
		),
		mcp.WithOutputSchema[CheckCommandResult](),
	)
}

// checkCommandHandler reports command existence with structured content
// alongside the text message.
func checkCommandHandler(engine DocEngine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input commandInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid check arguments", err), nil
		}

		result, err := engine.Check(ctx, input.Command)
		if err != nil {
			return mcp.NewToolResultText(manual.ErrorMessage(err)), nil
		}

		structured := CheckCommandResult{
			Name:    result.Name,
			Exists:  result.Exists,
			Path:    result.Path,
			Version: result.Version,
		}
		return mcp.NewToolResultStructured(structured, result.Message()), nil
	}
}

// cheatsheetTool defines the get-command-cheatsheet schema.
func cheatsheetTool() mcp.Tool {
	return mcp.NewTool(
		"get-command-cheatsheet",
		mcp.WithDescription("Get the locally stored markdown cheatsheet for a command"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command name the cheatsheet is filed under"),
		),
		mcp.WithOutputSchema[CheatsheetResult](),
	)
}

// cheatsheetHandler returns the cheatsheet body with the frontmatter
// fields as structured content.
func cheatsheetHandler(sheets SheetLibrary) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input commandInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid cheatsheet arguments", err), nil
		}

		name, err := validation.CommandName(input.Command)
		if err != nil {
			return mcp.NewToolResultText(manual.ErrorMessage(err)), nil
		}

		sheet, err := sheets.Lookup(name)
		if err != nil {
			var notFound *library.NotFoundError
			if errors.As(err, &notFound) {
				return mcp.NewToolResultText(notFound.Message()), nil
			}
			return mcp.NewToolResultErrorFromErr("cheatsheet lookup failed", err), nil
		}

		structured := CheatsheetResult{
			Command:     sheet.Command,
			Description: sheet.Description,
			Tags:        sheet.Tags,
		}
		return mcp.NewToolResultStructured(structured, strings.TrimSpace(sheet.Content)), nil
	}
}
