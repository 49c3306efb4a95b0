package main

import "github.com/minhtam/ordersight/internal/cmd"

func main() {
	cmd.Execute()
}
