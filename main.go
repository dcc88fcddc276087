package main

import (
	"github.com/castline/castline/cmd"
)

func main() {
	cmd.Execute()
}
