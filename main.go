package main

import "github.com/Justype/slurmit/cmd"

func main() {
	cmd.Execute()
}
