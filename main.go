package main

import "github.com/DREAM-ODA-OS/eoxserver/cmd"

func main() {
	cmd.Execute()
}
