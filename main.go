package main

import "github.com/aidenappl/tracequery/cmd"

func main() {
	cmd.Execute()
}
