package main

import "github.com/lexcodex/srcmap/app/cmd"

func main() {
	cmd.Execute()
}
