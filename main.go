package main

import "github.com/crisislink/crisislink/cmd"

func main() {
	cmd.Execute()
}
