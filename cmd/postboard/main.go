package main

import "github.com/ThreeDotsLabs/postboard/cmd/postboard/cmd"

func main() {
	cmd.Execute()
}
