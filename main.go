package main

import "github.com/jakeddavis/CPanel/cmd"

func main() {
	cmd.Execute()
}
