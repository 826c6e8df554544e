package main

import "github.com/saadjs/caffinity-cli/cmd/caffinity"

func main() {
	caffinity.Execute()
}
