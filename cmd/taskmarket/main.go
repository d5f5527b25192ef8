package main

import (
	"github.com/bornholm/taskmarket/internal/command"
	"github.com/bornholm/taskmarket/internal/command/serve"
)

func main() {
	command.Main("taskmarket", "Escrowed task marketplace", serve.Command())
}
