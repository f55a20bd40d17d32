package main

import "github.com/mburuwhiz/idmaker-sub000/cmd"

func main() {
	cmd.Execute()
}
