package main

import "weather-alert-pipeline/internal/cli"

func main() {
	cli.Execute()
}
