package main

import "github.com/carolhungwt/physio-doctor-platform/cmd"

func main() {
	cmd.Execute()
}
