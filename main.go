package main

import "github.com/kozaktomas/seichi-gallery/cmd"

func main() {
	cmd.Execute()
}
