package main

import "github.com/MeKo-Tech/seamlesstex/internal/cmd"

func main() {
	cmd.Execute()
}
