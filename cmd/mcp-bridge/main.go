// Command mcp-bridge serves an MCP engine over Streamable HTTP or stdio.
package main

import "github.com/Sentinel-Gate/mcp-bridge/cmd/mcp-bridge/cmd"

func main() {
	cmd.Execute()
}
