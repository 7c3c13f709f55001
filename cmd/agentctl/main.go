package main

import "github.com/agentregistry-dev/agentconsole/pkg/cli"

func main() {
	cli.Execute()
}
