/*
Package tools exposes the browser actions as individually-typed callable
tools for a tool-calling agent framework.

Registry maps tool names to functions and JSON schemas, with optional
per-tool rate limiting. NewToolset builds the full browser tool surface
around one session.Manager: each adapter decodes its arguments into the
matching typed action and returns the manager's composed observation.
*/
package tools
