// Package agentimport reconciles an exported agent definition with the models,
// tools and MCP servers available on the target platform before it is imported.
//
// A Session walks the three wizard steps (model, fields, MCP) over state built
// by ParseConfigFields and ParseMcpServers, and Assemble produces the document
// that is finally submitted.
package agentimport
