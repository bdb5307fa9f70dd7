package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/browserpilot/browserpilot/browser"
	"github.com/browserpilot/browserpilot/session"
)

// Config configures the toolset built by NewToolset.
type Config struct {
	// Rate limits each registered tool; nil means unlimited.
	Rate *RateConfig
}

// DefaultConfig returns sensible defaults. Browser actions take on the
// order of seconds, so the limiter only bites on runaway call loops.
func DefaultConfig() Config {
	return Config{
		Rate: &RateConfig{PerSecond: 5, Burst: 20},
	}
}

// NewToolset registers one tool per browser action kind, all dispatching
// through the given session manager. The manager is passed by reference:
// every adapter shares its history and budget, and multiple sessions get
// their own toolsets.
func NewToolset(m *session.Manager, cfg Config, logger *zap.Logger) (*Registry, error) {
	r := NewRegistry(logger)

	type toolDef struct {
		schema Schema
		build  func(args json.RawMessage) (browser.Action, error)
	}

	defs := []toolDef{
		{
			schema: Schema{
				Name:        "search_google",
				Description: "Search Google with a query string.",
				Parameters: objectSchema(map[string]any{
					"query": map[string]any{"type": "string", "description": "Query string to search in Google"},
				}, "query"),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					Query string `json:"query"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.SearchGoogle{Query: in.Query}, nil
			},
		},
		{
			schema: Schema{
				Name:        "go_to_url",
				Description: "Navigate to a specified URL in the current tab.",
				Parameters: objectSchema(map[string]any{
					"url": map[string]any{"type": "string"},
				}, "url"),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					URL string `json:"url"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.GoToURL{URL: in.URL}, nil
			},
		},
		{
			schema: Schema{
				Name:        "go_back",
				Description: "Go back to the previous page.",
				Parameters:  objectSchema(map[string]any{}),
			},
			build: func(json.RawMessage) (browser.Action, error) {
				return browser.GoBack{}, nil
			},
		},
		{
			schema: Schema{
				Name:        "click_element",
				Description: "Click the element with the given highlight index.",
				Parameters: objectSchema(map[string]any{
					"index": map[string]any{"type": "integer", "description": "The highlight index"},
				}, "index"),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					Index int `json:"index"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.ClickElement{Index: in.Index}, nil
			},
		},
		{
			schema: Schema{
				Name:        "input_text",
				Description: "Input text into a element with a given highlight index.",
				Parameters: objectSchema(map[string]any{
					"index": map[string]any{"type": "integer"},
					"text":  map[string]any{"type": "string"},
				}, "index", "text"),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					Index int    `json:"index"`
					Text  string `json:"text"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.InputText{Index: in.Index, Text: in.Text}, nil
			},
		},
		{
			schema: Schema{
				Name:        "switch_tab",
				Description: "Switch to a tab with a given page_id.",
				Parameters: objectSchema(map[string]any{
					"page_id": map[string]any{"type": "integer"},
				}, "page_id"),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					PageID int `json:"page_id"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.SwitchTab{PageID: in.PageID}, nil
			},
		},
		{
			schema: Schema{
				Name:        "open_tab",
				Description: "Open a new tab and optionally go to a URL.",
				Parameters: objectSchema(map[string]any{
					"url": map[string]any{"type": "string"},
				}),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					URL string `json:"url"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.OpenTab{URL: in.URL}, nil
			},
		},
		{
			schema: Schema{
				Name:        "extract_content",
				Description: "Extract page content as text/markdown/html.",
				Parameters: objectSchema(map[string]any{
					"value": map[string]any{"type": "string", "description": "One of 'text','markdown','html'"},
				}),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					Value string `json:"value"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				if in.Value == "" {
					in.Value = "text"
				}
				return browser.ExtractContent{Format: in.Value}, nil
			},
		},
		{
			schema: Schema{
				Name:        "done",
				Description: "Signal the task is done.",
				Parameters: objectSchema(map[string]any{
					"text": map[string]any{"type": "string"},
				}, "text"),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					Text string `json:"text"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.Done{Text: in.Text}, nil
			},
		},
		{
			schema: Schema{
				Name:        "scroll_down",
				Description: "Scroll down the page.",
				Parameters: objectSchema(map[string]any{
					"amount": map[string]any{"type": "integer"},
				}),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					Amount int `json:"amount"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.ScrollDown{Amount: in.Amount}, nil
			},
		},
		{
			schema: Schema{
				Name:        "scroll_up",
				Description: "Scroll up the page.",
				Parameters: objectSchema(map[string]any{
					"amount": map[string]any{"type": "integer"},
				}),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					Amount int `json:"amount"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.ScrollUp{Amount: in.Amount}, nil
			},
		},
		{
			schema: Schema{
				Name:        "send_keys",
				Description: "Send special keys or keyboard shortcuts.",
				Parameters: objectSchema(map[string]any{
					"keys": map[string]any{"type": "string"},
				}, "keys"),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					Keys string `json:"keys"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.SendKeys{Keys: in.Keys}, nil
			},
		},
		{
			schema: Schema{
				Name:        "scroll_to_text",
				Description: "Scroll until the specified text is in view.",
				Parameters: objectSchema(map[string]any{
					"text": map[string]any{"type": "string", "description": "The text to scroll into view"},
				}, "text"),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					Text string `json:"text"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.ScrollToText{Text: in.Text}, nil
			},
		},
		{
			schema: Schema{
				Name:        "get_dropdown_options",
				Description: "Get all options from a native dropdown.",
				Parameters: objectSchema(map[string]any{
					"index": map[string]any{"type": "integer", "description": "The highlight index of the <select> element"},
				}, "index"),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					Index int `json:"index"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.GetDropdownOptions{Index: in.Index}, nil
			},
		},
		{
			schema: Schema{
				Name:        "select_dropdown_option",
				Description: "Select an option in a dropdown by text.",
				Parameters: objectSchema(map[string]any{
					"index": map[string]any{"type": "integer", "description": "The highlight index of the <select> element"},
					"text":  map[string]any{"type": "string", "description": "The exact option text to select"},
				}, "index", "text"),
			},
			build: func(args json.RawMessage) (browser.Action, error) {
				var in struct {
					Index int    `json:"index"`
					Text  string `json:"text"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return browser.SelectDropdownOption{Index: in.Index, Text: in.Text}, nil
			},
		},
	}

	for _, def := range defs {
		build := def.build
		name := def.schema.Name
		fn := func(ctx context.Context, args json.RawMessage) (string, error) {
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			action, err := build(args)
			if err != nil {
				return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
			}
			return m.ExecuteAction(ctx, action).Text, nil
		}
		if err := r.Register(fn, Metadata{Schema: def.schema, Rate: cfg.Rate}); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// objectSchema builds a JSON-schema object with the given properties.
func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
