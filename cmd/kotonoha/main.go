package main

import "github.com/kotonoha-app/kotonoha/cmd/kotonoha/cmd"

func main() {
	cmd.Execute()
}
