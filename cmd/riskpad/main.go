package main

import "github.com/riskpad/riskpad/cmd/riskpad/cmd"

func main() {
	cmd.Execute()
}
