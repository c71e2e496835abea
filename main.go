package main

import "party-ledger/cmd"

func main() {
	cmd.Execute()
}
