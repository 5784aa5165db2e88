package main

import "workq/cmd"

func main() {
	cmd.Run()
}
