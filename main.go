package main

import "asterias/cmd"

func main() {
	cmd.Execute()
}
