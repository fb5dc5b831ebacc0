package main

import "github.com/KaramelBytes/rentdash/cmd"

func main() {
	cmd.Execute()
}
