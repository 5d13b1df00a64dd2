package main

import "github.com/K0NGR3SS/netwatch/commands"

func main() {
	commands.Execute()
}
