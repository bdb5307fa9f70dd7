package browser

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

// specialKeys maps tool-facing key names to CDP key codes.
var specialKeys = map[string]string{
	"Enter":     kb.Enter,
	"Tab":       kb.Tab,
	"Backspace": kb.Backspace,
	"Escape":    kb.Escape,
	"Delete":    kb.Delete,
	"PageDown":  kb.PageDown,
	"PageUp":    kb.PageUp,
	"ArrowDown": kb.ArrowDown,
	"ArrowUp":   kb.ArrowUp,
}

// ChromeEngine drives a headless Chrome instance via chromedp. It
// implements both Engine and SnapshotProvider: the snapshot pass assigns
// element indices that subsequent click/input actions resolve through the
// engine's element table.
type ChromeEngine struct {
	config Config
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu       sync.Mutex
	tabs     []tab
	current  int
	elements map[int]Element // from the most recent snapshot
	closed   bool
}

type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewChromeEngine launches a browser and opens the first tab.
func NewChromeEngine(config Config, logger *zap.Logger) (*ChromeEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "chrome_engine"))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.WindowSize(config.ViewportWidth, config.ViewportHeight),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(config.ProxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &ChromeEngine{
		config:      config,
		logger:      logger,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabs:        []tab{{ctx: tabCtx, cancel: tabCancel}},
		elements:    make(map[int]Element),
	}, nil
}

// Act dispatches a single action against the current tab.
func (e *ChromeEngine) Act(ctx context.Context, action Action) (*Result, error) {
	tabCtx, err := e.currentTab()
	if err != nil {
		return nil, err
	}

	runCtx := tabCtx
	var cancel context.CancelFunc
	if e.config.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(tabCtx, e.config.Timeout)
		defer cancel()
	}

	e.logger.Debug("executing action", zap.String("action", action.Name()))

	switch a := action.(type) {
	case SearchGoogle:
		target := "https://www.google.com/search?q=" + url.QueryEscape(a.Query)
		return e.run(runCtx, chromedp.Navigate(target))

	case GoToURL:
		return e.run(runCtx, chromedp.Navigate(a.URL))

	case GoBack:
		return e.run(runCtx, chromedp.NavigateBack())

	case ClickElement:
		sel, ok := e.selectorFor(a.Index)
		if !ok {
			return &Result{Err: "element not found"}, nil
		}
		return e.run(runCtx, chromedp.Click(sel, chromedp.ByQuery))

	case InputText:
		sel, ok := e.selectorFor(a.Index)
		if !ok {
			return &Result{Err: "element not found"}, nil
		}
		return e.run(runCtx,
			chromedp.Clear(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, a.Text, chromedp.ByQuery),
		)

	case SwitchTab:
		return e.switchTab(a.PageID)

	case OpenTab:
		return e.openTab(a.URL)

	case ExtractContent:
		return e.extract(runCtx, a.Format)

	case Done:
		return &Result{ExtractedContent: a.Text}, nil

	case ScrollDown:
		return e.scroll(runCtx, a.Amount, false)

	case ScrollUp:
		return e.scroll(runCtx, a.Amount, true)

	case SendKeys:
		keys := a.Keys
		if code, ok := specialKeys[keys]; ok {
			keys = code
		}
		return e.run(runCtx, chromedp.KeyEvent(keys))

	case ScrollToText:
		return e.scrollToText(runCtx, a.Text)

	case GetDropdownOptions:
		return e.dropdownOptions(runCtx, a.Index)

	case SelectDropdownOption:
		return e.selectDropdownOption(runCtx, a.Index, a.Text)

	default:
		return &Result{Err: fmt.Sprintf("unsupported action: %s", action.Name())}, nil
	}
}

// Snapshot fetches the current DOM, refreshes the element table, and
// renders the interactive elements with their indices.
func (e *ChromeEngine) Snapshot(ctx context.Context) (string, error) {
	tabCtx, err := e.currentTab()
	if err != nil {
		return "", err
	}

	runCtx := tabCtx
	var cancel context.CancelFunc
	if e.config.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(tabCtx, e.config.Timeout)
		defer cancel()
	}

	var pageHTML string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("fetch page html: %w", err)
	}

	elements, err := ParseClickable(pageHTML)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.elements = make(map[int]Element, len(elements))
	for _, el := range elements {
		e.elements[el.Index] = el
	}
	e.mu.Unlock()

	return RenderElements(elements, e.config.SnapshotMaxChars), nil
}

// Close tears down all tabs and the browser process. Safe to call more
// than once.
func (e *ChromeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	for _, t := range e.tabs {
		t.cancel()
	}
	e.allocCancel()
	e.logger.Info("browser closed", zap.Int("tabs", len(e.tabs)))
	return nil
}

func (e *ChromeEngine) currentTab() (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("engine is closed")
	}
	return e.tabs[e.current].ctx, nil
}

func (e *ChromeEngine) selectorFor(index int) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	el, ok := e.elements[index]
	if !ok {
		return "", false
	}
	return el.Selector, true
}

func (e *ChromeEngine) run(ctx context.Context, actions ...chromedp.Action) (*Result, error) {
	if err := chromedp.Run(ctx, actions...); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *ChromeEngine) switchTab(pageID int) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("engine is closed")
	}
	if pageID < 0 || pageID >= len(e.tabs) {
		return &Result{Err: fmt.Sprintf("no tab with page_id %d", pageID)}, nil
	}
	e.current = pageID
	// Indices belong to the previous tab's DOM.
	e.elements = make(map[int]Element)
	return &Result{}, nil
}

func (e *ChromeEngine) openTab(target string) (*Result, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, fmt.Errorf("engine is closed")
	}
	tabCtx, tabCancel := chromedp.NewContext(e.allocCtx)
	e.tabs = append(e.tabs, tab{ctx: tabCtx, cancel: tabCancel})
	e.current = len(e.tabs) - 1
	e.elements = make(map[int]Element)
	e.mu.Unlock()

	if target == "" {
		target = "about:blank"
	}
	if err := chromedp.Run(tabCtx, chromedp.Navigate(target)); err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &Result{}, nil
}

func (e *ChromeEngine) extract(ctx context.Context, format string) (*Result, error) {
	var content string
	var err error
	switch format {
	case "html":
		err = chromedp.Run(ctx, chromedp.OuterHTML("html", &content, chromedp.ByQuery))
	default:
		// "text" and "markdown" both return the rendered text; markdown
		// structure is not reconstructed from the DOM.
		err = chromedp.Run(ctx, chromedp.Evaluate("document.body.innerText", &content))
	}
	if err != nil {
		return nil, err
	}
	return &Result{ExtractedContent: content}, nil
}

func (e *ChromeEngine) scroll(ctx context.Context, amount int, up bool) (*Result, error) {
	var js string
	switch {
	case amount == 0 && up:
		js = "window.scrollBy(0, -window.innerHeight)"
	case amount == 0:
		js = "window.scrollBy(0, window.innerHeight)"
	case up:
		js = fmt.Sprintf("window.scrollBy(0, -%d)", amount)
	default:
		js = fmt.Sprintf("window.scrollBy(0, %d)", amount)
	}
	return e.run(ctx, chromedp.Evaluate(js, nil))
}

func (e *ChromeEngine) scrollToText(ctx context.Context, text string) (*Result, error) {
	js := fmt.Sprintf(`(function(t) {
		const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
		let node;
		while ((node = walker.nextNode())) {
			if (node.textContent.includes(t)) {
				node.parentElement.scrollIntoView({block: 'center'});
				return true;
			}
		}
		return false;
	})(%s)`, strconv.Quote(text))

	var found bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &found)); err != nil {
		return nil, err
	}
	if !found {
		return &Result{Err: fmt.Sprintf("text not found: %s", text)}, nil
	}
	return &Result{}, nil
}

func (e *ChromeEngine) dropdownOptions(ctx context.Context, index int) (*Result, error) {
	sel, ok := e.selectorFor(index)
	if !ok {
		return &Result{Err: "element not found"}, nil
	}

	js := fmt.Sprintf(`(function(sel) {
		const el = document.querySelector(sel);
		if (!el || el.tagName !== 'SELECT') return {ok: false, options: ''};
		return {ok: true, options: Array.from(el.options).map((o, i) => i + ': ' + o.text).join('\n')};
	})(%s)`, strconv.Quote(sel))

	var out struct {
		OK      bool   `json:"ok"`
		Options string `json:"options"`
	}
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &out)); err != nil {
		return nil, err
	}
	if !out.OK {
		return &Result{Err: "element is not a dropdown"}, nil
	}
	// A select with no options extracts nothing; the action's fallback
	// placeholder reports that to the agent.
	return &Result{ExtractedContent: out.Options}, nil
}

func (e *ChromeEngine) selectDropdownOption(ctx context.Context, index int, text string) (*Result, error) {
	sel, ok := e.selectorFor(index)
	if !ok {
		return &Result{Err: "element not found"}, nil
	}

	js := fmt.Sprintf(`(function(sel, text) {
		const el = document.querySelector(sel);
		if (!el || el.tagName !== 'SELECT') return false;
		for (const opt of el.options) {
			if (opt.text === text) {
				el.value = opt.value;
				el.dispatchEvent(new Event('change', {bubbles: true}));
				return true;
			}
		}
		return false;
	})(%s, %s)`, strconv.Quote(sel), strconv.Quote(text))

	var selected bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &selected)); err != nil {
		return nil, err
	}
	if !selected {
		return &Result{Err: fmt.Sprintf("option not found: %s", text)}, nil
	}
	return &Result{}, nil
}
