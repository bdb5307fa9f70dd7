package browser

import "fmt"

// Action is a closed set of browser operations. Each variant carries the
// typed fields its operation needs; the engine dispatches on the concrete
// type. The set mirrors the tool surface exposed to the agent.
type Action interface {
	// Name returns the tool-facing action name, e.g. "go_to_url".
	Name() string
	// Describe renders the action and its arguments for the history log,
	// e.g. "go_to_url(url=https://a)".
	Describe() string
	// Fallback is the result text used when the engine reports success
	// but extracts no content.
	Fallback() string

	isAction()
}

// SearchGoogle searches Google with a query string.
type SearchGoogle struct {
	Query string
}

func (SearchGoogle) Name() string     { return "search_google" }
func (SearchGoogle) Fallback() string { return "No content extracted." }
func (a SearchGoogle) Describe() string {
	return fmt.Sprintf("search_google(query=%s)", a.Query)
}

// GoToURL navigates the current tab to a URL.
type GoToURL struct {
	URL string
}

func (GoToURL) Name() string     { return "go_to_url" }
func (GoToURL) Fallback() string { return "No content extracted." }
func (a GoToURL) Describe() string {
	return fmt.Sprintf("go_to_url(url=%s)", a.URL)
}

// GoBack navigates back in the tab history.
type GoBack struct{}

func (GoBack) Name() string     { return "go_back" }
func (GoBack) Fallback() string { return "Back done." }
func (GoBack) Describe() string { return "go_back()" }

// ClickElement clicks the element with the given snapshot index.
type ClickElement struct {
	Index int
}

func (ClickElement) Name() string     { return "click_element" }
func (ClickElement) Fallback() string { return "Clicked element." }
func (a ClickElement) Describe() string {
	return fmt.Sprintf("click_element(index=%d)", a.Index)
}

// InputText types text into the element with the given snapshot index.
type InputText struct {
	Index int
	Text  string
}

func (InputText) Name() string     { return "input_text" }
func (InputText) Fallback() string { return "Text input done." }
func (a InputText) Describe() string {
	return fmt.Sprintf("input_text(index=%d, text=%s)", a.Index, a.Text)
}

// SwitchTab switches to the tab with the given page ID.
type SwitchTab struct {
	PageID int
}

func (SwitchTab) Name() string { return "switch_tab" }
func (a SwitchTab) Fallback() string {
	return fmt.Sprintf("Switched to tab %d.", a.PageID)
}
func (a SwitchTab) Describe() string {
	return fmt.Sprintf("switch_tab(page_id=%d)", a.PageID)
}

// OpenTab opens a new tab, optionally navigating to a URL.
type OpenTab struct {
	URL string
}

func (OpenTab) Name() string     { return "open_tab" }
func (OpenTab) Fallback() string { return "New tab opened." }
func (a OpenTab) Describe() string {
	if a.URL == "" {
		return "open_tab()"
	}
	return fmt.Sprintf("open_tab(url=%s)", a.URL)
}

// ExtractContent extracts the current page content. Format is one of
// "text", "markdown" or "html".
type ExtractContent struct {
	Format string
}

func (ExtractContent) Name() string     { return "extract_content" }
func (ExtractContent) Fallback() string { return "No content extracted." }
func (a ExtractContent) Describe() string {
	return fmt.Sprintf("extract_content(value=%s)", a.Format)
}

// Done signals that the task is complete. It has no browser effect; the
// carried text is the final answer.
type Done struct {
	Text string
}

func (Done) Name() string     { return "done" }
func (Done) Fallback() string { return "Task done." }
func (a Done) Describe() string {
	return fmt.Sprintf("done(text=%s)", a.Text)
}

// ScrollDown scrolls down by Amount pixels, or one viewport height when
// Amount is zero.
type ScrollDown struct {
	Amount int
}

func (ScrollDown) Name() string     { return "scroll_down" }
func (ScrollDown) Fallback() string { return "Scrolled down." }
func (a ScrollDown) Describe() string {
	if a.Amount == 0 {
		return "scroll_down()"
	}
	return fmt.Sprintf("scroll_down(amount=%d)", a.Amount)
}

// ScrollUp scrolls up by Amount pixels, or one viewport height when Amount
// is zero.
type ScrollUp struct {
	Amount int
}

func (ScrollUp) Name() string     { return "scroll_up" }
func (ScrollUp) Fallback() string { return "Scrolled up." }
func (a ScrollUp) Describe() string {
	if a.Amount == 0 {
		return "scroll_up()"
	}
	return fmt.Sprintf("scroll_up(amount=%d)", a.Amount)
}

// SendKeys sends special keys or keyboard shortcuts to the page.
type SendKeys struct {
	Keys string
}

func (SendKeys) Name() string { return "send_keys" }
func (a SendKeys) Fallback() string {
	return fmt.Sprintf("Sent keys: %s", a.Keys)
}
func (a SendKeys) Describe() string {
	return fmt.Sprintf("send_keys(keys=%s)", a.Keys)
}

// ScrollToText scrolls until the given text is in view.
type ScrollToText struct {
	Text string
}

func (ScrollToText) Name() string     { return "scroll_to_text" }
func (ScrollToText) Fallback() string { return "Scrolled to text." }
func (a ScrollToText) Describe() string {
	return fmt.Sprintf("scroll_to_text(text=%s)", a.Text)
}

// GetDropdownOptions lists the options of the <select> element with the
// given snapshot index.
type GetDropdownOptions struct {
	Index int
}

func (GetDropdownOptions) Name() string     { return "get_dropdown_options" }
func (GetDropdownOptions) Fallback() string { return "No dropdown options found." }
func (a GetDropdownOptions) Describe() string {
	return fmt.Sprintf("get_dropdown_options(index=%d)", a.Index)
}

// SelectDropdownOption selects an option by its exact text in the <select>
// element with the given snapshot index.
type SelectDropdownOption struct {
	Index int
	Text  string
}

func (SelectDropdownOption) Name() string     { return "select_dropdown_option" }
func (SelectDropdownOption) Fallback() string { return "Dropdown option selected." }
func (a SelectDropdownOption) Describe() string {
	return fmt.Sprintf("select_dropdown_option(index=%d, text=%s)", a.Index, a.Text)
}

func (SearchGoogle) isAction()         {}
func (GoToURL) isAction()              {}
func (GoBack) isAction()               {}
func (ClickElement) isAction()         {}
func (InputText) isAction()            {}
func (SwitchTab) isAction()            {}
func (OpenTab) isAction()              {}
func (ExtractContent) isAction()       {}
func (Done) isAction()                 {}
func (ScrollDown) isAction()           {}
func (ScrollUp) isAction()             {}
func (SendKeys) isAction()             {}
func (ScrollToText) isAction()         {}
func (GetDropdownOptions) isAction()   {}
func (SelectDropdownOption) isAction() {}
