package main

import "pollme-backend/cmd"

func main() {
	cmd.Run()
}
