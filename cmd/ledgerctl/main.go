package main

import "github.com/SscSPs/bizledger/cmd/ledgerctl/cmd"

func main() {
	cmd.Execute()
}
