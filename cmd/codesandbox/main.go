package main

import "github.com/vanpelt/codesandbox/internal/cmd"

func main() {
	cmd.Execute()
}
