package main

import "github.com/expotrade/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
