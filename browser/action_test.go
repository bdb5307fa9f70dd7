package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionDescribe(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{SearchGoogle{Query: "golang chromedp"}, "search_google(query=golang chromedp)"},
		{GoToURL{URL: "https://example.com"}, "go_to_url(url=https://example.com)"},
		{GoBack{}, "go_back()"},
		{ClickElement{Index: 7}, "click_element(index=7)"},
		{InputText{Index: 2, Text: "hello"}, "input_text(index=2, text=hello)"},
		{SwitchTab{PageID: 1}, "switch_tab(page_id=1)"},
		{OpenTab{}, "open_tab()"},
		{OpenTab{URL: "https://a"}, "open_tab(url=https://a)"},
		{ExtractContent{Format: "markdown"}, "extract_content(value=markdown)"},
		{Done{Text: "all done"}, "done(text=all done)"},
		{ScrollDown{}, "scroll_down()"},
		{ScrollDown{Amount: 500}, "scroll_down(amount=500)"},
		{ScrollUp{Amount: 250}, "scroll_up(amount=250)"},
		{SendKeys{Keys: "Enter"}, "send_keys(keys=Enter)"},
		{ScrollToText{Text: "Pricing"}, "scroll_to_text(text=Pricing)"},
		{GetDropdownOptions{Index: 4}, "get_dropdown_options(index=4)"},
		{SelectDropdownOption{Index: 4, Text: "Large"}, "select_dropdown_option(index=4, text=Large)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.action.Describe())
	}
}

func TestActionFallback(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{SearchGoogle{}, "No content extracted."},
		{GoToURL{}, "No content extracted."},
		{GoBack{}, "Back done."},
		{ClickElement{}, "Clicked element."},
		{InputText{}, "Text input done."},
		{SwitchTab{PageID: 2}, "Switched to tab 2."},
		{OpenTab{}, "New tab opened."},
		{ExtractContent{}, "No content extracted."},
		{Done{}, "Task done."},
		{ScrollDown{}, "Scrolled down."},
		{ScrollUp{}, "Scrolled up."},
		{SendKeys{Keys: "Control+a"}, "Sent keys: Control+a"},
		{ScrollToText{}, "Scrolled to text."},
		{GetDropdownOptions{}, "No dropdown options found."},
		{SelectDropdownOption{}, "Dropdown option selected."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.action.Fallback())
	}
}

func TestActionNamesAreUnique(t *testing.T) {
	actions := []Action{
		SearchGoogle{}, GoToURL{}, GoBack{}, ClickElement{}, InputText{},
		SwitchTab{}, OpenTab{}, ExtractContent{}, Done{}, ScrollDown{},
		ScrollUp{}, SendKeys{}, ScrollToText{}, GetDropdownOptions{},
		SelectDropdownOption{},
	}

	seen := make(map[string]bool, len(actions))
	for _, a := range actions {
		assert.False(t, seen[a.Name()], "duplicate action name %q", a.Name())
		seen[a.Name()] = true
	}
	assert.Len(t, seen, 15)
}
