package main

import "github.com/openjournals/ojs-pubmed/cmd"

func main() {
	cmd.Execute()
}
