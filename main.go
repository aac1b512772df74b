package main

import "github.com/haledesignstudio/Pollen/cmd"

func main() {
	cmd.Execute()
}
