/*
Package browser provides browser automation for tool-calling agents.

Action is a closed set of typed operations (navigate, click, input, scroll,
tab management, content extraction); the Engine interface executes them
against a live browsing context and reports semantic failures as text in
Result.Err, reserving Go errors for engine-level faults.

SnapshotProvider renders the current page's interactive elements as indexed
text; the indices are what ClickElement and InputText refer to.

ChromeEngine is the built-in implementation on top of chromedp: headless
Chrome with multi-tab support, goquery-based element enumeration, and
per-action timeouts.
*/
package browser
