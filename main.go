package main

import "admin-backend/cmd"

func main() {
	cmd.Execute()
}
