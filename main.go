package main

import "github.com/KaramelBytes/surveyloom-cli/cmd"

func main() {
	cmd.Execute()
}
