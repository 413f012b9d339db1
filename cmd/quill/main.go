package main

import "github.com/naveenspark/quill/cmd/quill/cmd"

func main() {
	cmd.Execute()
}
