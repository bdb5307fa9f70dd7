/*
Package session implements the bounded-context action-history manager for
browser tool-calling agents.

Every executed action and its result is appended to an immutable,
session-scoped History. The Composer measures the rendered history, the
latest result, and the current page state in model tokens and enforces a
hard budget: the latest result is truncated first (trailing tokens
dropped), then the page state, each falling back to a fixed sentinel when
trimming cannot cover the excess. History itself is never truncated.

Manager ties it together: it runs actions on a browser.Engine, records
outcomes (including engine errors and unexpected collaborator failures),
and returns a budget-compliant observation string for the agent. No action
failure ever propagates out of ExecuteAction; failures become text the
agent can reason about.
*/
package session
