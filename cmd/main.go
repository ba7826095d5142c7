package main

import "github.com/RoyceAzure/lab/bikemarket/internal/cmd"

func main() {
	cmd.Execute()
}
