package main

import "github.com/ZephyrDeng/heapsnap-analyzer-mcp/internal/cli"

func main() {
	cli.Execute()
}
