package main

import (
	"github.com/croftdb/croft/cmd"
)

func main() {
	cmd.Execute()
}
