package main

import "github.com/Davincible/llmwire/cmd"

func main() {
	cmd.Execute()
}
