package main

import "jobrag/internal/cli"

func main() {
	cli.Execute()
}
