package main

import "github.com/wanderblog/apiserver/cmd"

func main() {
	cmd.Execute()
}
