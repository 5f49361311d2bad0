package main

import (
	"github.com/attestnet/attest/cmd/attest/cmd"
)

func main() {
	cmd.Execute()
}
