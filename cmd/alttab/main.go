package main

import "github.com/bryanchriswhite/alttab/cmd/alttab/commands"

func main() {
	commands.Execute()
}
