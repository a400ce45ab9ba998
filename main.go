package main

import "recops/cmd"

func main() {
	cmd.Execute()
}
